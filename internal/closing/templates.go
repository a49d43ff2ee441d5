package closing

import (
	"math/rand"
	"strings"
	"sync"

	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/dialog"
)

const templateQuality = 0.85

// Catalog holds the closing and confirmation line variants. The two
// groups are selected independently: closing lines open the final
// message, confirmation lines end it, and both switch on whether the
// booking still needs a follow-up call.
type Catalog struct {
	mu           sync.Mutex
	rng          *rand.Rand
	closing      map[string][]string
	confirmation map[string][]string
}

func NewCatalog(rng *rand.Rand) *Catalog {
	return &Catalog{
		rng: rng,
		closing: map[string][]string{
			"standard": {
				"Perfect! I have all the information I need. Let me confirm your appointment:",
				"Excellent! I've got everything we need to schedule your appointment:",
				"Great! Here's a summary of your appointment request:",
			},
			"needs_confirmation": {
				"I have all the details for your appointment. Let me just confirm everything with you:",
				"Perfect! Before we finalize, let me read back your appointment details:",
				"Excellent! Here's what I have scheduled for you - please confirm:",
			},
		},
		confirmation: map[string][]string{
			"standard": {
				"Your appointment has been confirmed! You'll receive a confirmation text shortly.",
				"All set! We've confirmed your appointment and will send you a reminder.",
				"Perfect! Your appointment is confirmed. You should receive a confirmation message soon.",
			},
			"with_followup": {
				"Your appointment request has been received! We'll call you back within 24 hours to confirm the exact time.",
				"Thank you! We have your request and will contact you shortly to finalize the details.",
				"Got it! We'll reach out to you soon to confirm your preferred time slot.",
			},
		},
	}
}

// Fallback assembles the deterministic closing message: an opening line,
// the formatted appointment details, and a confirmation line.
func (c *Catalog) Fallback(req compose.Request) compose.Outcome {
	followup := NeedsFollowup(req.Known)

	closingKey, confirmKey := "standard", "standard"
	if followup {
		closingKey, confirmKey = "needs_confirmation", "with_followup"
	}

	var b strings.Builder
	b.WriteString(c.pick(c.closing, closingKey, "Thank you for scheduling your appointment!"))
	b.WriteString("\n\n")
	b.WriteString(FormatDetails(req.Known))
	b.WriteString("\n\n")
	b.WriteString(c.pick(c.confirmation, confirmKey, "We'll be in touch soon!"))

	return compose.Outcome{
		Text:    b.String(),
		Quality: templateQuality,
		Valid:   true,
		Method:  compose.MethodTemplate,
	}
}

func (c *Catalog) pick(group map[string][]string, key, fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	vs := group[key]
	if len(vs) == 0 {
		return fallback
	}
	return vs[c.rng.Intn(len(vs))]
}

// FormatDetails renders the collected values as the read-back block
// embedded in the closing message.
func FormatDetails(known map[dialog.Slot]string) string {
	var b strings.Builder
	b.WriteString("Appointment Details:\n")
	b.WriteString("   Name: " + known[dialog.SlotCallerName] + "\n")
	b.WriteString("   Phone: " + known[dialog.SlotPhoneNumber] + "\n")
	b.WriteString("   Service: " + known[dialog.SlotServiceType] + "\n")
	b.WriteString("   Day: " + known[dialog.SlotDayPreference] + "\n")
	b.WriteString("   Time: " + known[dialog.SlotTimePreference])
	return b.String()
}
