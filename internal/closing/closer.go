// Package closing produces the end-of-dialogue message once every
// required slot is filled: validates the collected values, generates the
// closing text through the shared generation gate, and builds the
// appointment record handed to storage.
package closing

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"dialogue-platform/internal/appointment"
	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/dialog"
)

// Result is the outcome of closing a completed session.
type Result struct {
	Message          string         `json:"message"`
	Summary          string         `json:"summary"`
	ConfirmationCode string         `json:"confirmation_code"`
	NextSteps        []string       `json:"next_steps"`
	NeedsFollowup    bool           `json:"needs_followup"`
	Quality          float64        `json:"quality"`
	Valid            bool           `json:"valid"`
	Method           compose.Method `json:"method"`
}

// Closer generates closing messages. The catalog doubles as the gate's
// fallback, so even an unavailable or low-quality generator yields a
// complete message.
type Closer struct {
	gate    *compose.Gate
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCloser builds a closer around an already-configured gate. The gate's
// fallback must be the catalog's Fallback.
func NewCloser(gate *compose.Gate, catalog *Catalog, rng *rand.Rand) *Closer {
	return &Closer{gate: gate, catalog: catalog, rng: rng}
}

// Close generates the closing message for a session whose required slots
// are all filled. Invalid collected values skip the primary generator,
// go straight to the template path, and flag the booking for follow-up
// instead of auto-confirming it.
func (c *Closer) Close(ctx context.Context, required []dialog.Slot, known map[dialog.Slot]string) Result {
	req := compose.Request{Known: known, Context: "closing"}

	valid := ValidAppointment(required, known)
	var out compose.Outcome
	if !valid {
		out = c.catalog.Fallback(req)
	} else {
		out = c.gate.Generate(ctx, req)
	}

	followup := !valid || NeedsFollowup(known)
	return Result{
		Message:          out.Text,
		Summary:          FormatDetails(known),
		ConfirmationCode: c.confirmationCode(),
		NextSteps:        NextSteps(followup),
		NeedsFollowup:    followup,
		Quality:          out.Quality,
		Valid:            out.Valid,
		Method:           out.Method,
	}
}

// BuildRecord converts the collected values and closing result into the
// appointment record to persist.
func (c *Closer) BuildRecord(sessionID string, known map[dialog.Slot]string, res Result) appointment.Record {
	status := appointment.StatusConfirmed
	if res.NeedsFollowup {
		status = appointment.StatusNeedsFollowup
	}
	return appointment.Record{
		SessionID:        sessionID,
		CustomerName:     known[dialog.SlotCallerName],
		CustomerPhone:    known[dialog.SlotPhoneNumber],
		PreferredDay:     known[dialog.SlotDayPreference],
		PreferredTime:    known[dialog.SlotTimePreference],
		Service:          known[dialog.SlotServiceType],
		ConfirmationCode: res.ConfirmationCode,
		Status:           status,
	}
}

func (c *Closer) confirmationCode() string {
	c.mu.Lock()
	n := 100000 + c.rng.Intn(900000)
	c.mu.Unlock()
	return fmt.Sprintf("APT%d", n)
}

var (
	phonePattern = regexp.MustCompile(`^(\d{3}-\d{3}-\d{4}|\(\d{3}\)\s*\d{3}-\d{4}|\d{10})$`)
	weekdays     = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// ValidAppointment reports whether every slot the session requires is
// present and well-formed enough to book without human review. Format
// checks apply only to the values actually collected, so a session
// configured with a slot subset can still validate.
func ValidAppointment(required []dialog.Slot, known map[dialog.Slot]string) bool {
	for _, slot := range required {
		if known[slot] == "" {
			return false
		}
	}
	if v := known[dialog.SlotCallerName]; v != "" && !ValidName(v) {
		return false
	}
	if v := known[dialog.SlotPhoneNumber]; v != "" && !ValidPhone(v) {
		return false
	}
	if v := known[dialog.SlotDayPreference]; v != "" && !ValidDay(v) {
		return false
	}
	return true
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

func ValidName(name string) bool {
	return len(name) >= 2 && len(name) <= 50
}

func ValidDay(day string) bool {
	for _, d := range weekdays {
		if strings.EqualFold(day, d) {
			return true
		}
	}
	return false
}

// NeedsFollowup reports whether the time preference is too vague to book
// directly (a daypart rather than a clock time).
func NeedsFollowup(known map[dialog.Slot]string) bool {
	t := strings.ToLower(known[dialog.SlotTimePreference])
	if t == "" {
		return true
	}
	return strings.Contains(t, "morning") ||
		strings.Contains(t, "afternoon") ||
		strings.Contains(t, "evening")
}

// NextSteps lists what the caller should expect after the closing message.
func NextSteps(followup bool) []string {
	if followup {
		return []string{
			"Wait for confirmation call within 24 hours",
			"Keep your phone available for our call",
			"Prepare any questions about the service",
		}
	}
	return []string{
		"Watch for confirmation text message",
		"Arrive 10 minutes early for your appointment",
		"Bring valid ID if this is your first visit",
	}
}
