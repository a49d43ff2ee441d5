package extract

import (
	"context"
	"regexp"
	"strings"

	"dialogue-platform/internal/dialog"
)

// PatternProbe is a deterministic pattern extractor useful for tests and
// early development, mirroring the keyword probe on the classify side.
type PatternProbe struct{}

// NewPatternProbe builds the default appointment-domain probe.
func NewPatternProbe() *PatternProbe { return &PatternProbe{} }

var (
	namePattern  = regexp.MustCompile(`(?i)(?:i'm|i am|my name is|this is)\s+([A-Z][a-z]+)`)
	phoneValue   = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}-\d{4}`)
	dayValue     = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow)\b`)
	timeValue    = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)|morning|afternoon|evening|noon)\b`)
	serviceValue = regexp.MustCompile(`(?i)\b(haircut|color(?:ing)?|trim|styling|blowout|perm)\b`)
)

// Extract returns the first match for the slot's pattern.
func (p *PatternProbe) Extract(_ context.Context, utterance string, slot dialog.Slot) (string, float64, error) {
	switch slot {
	case dialog.SlotCallerName:
		if m := namePattern.FindStringSubmatch(utterance); m != nil {
			return m[1], 0.9, nil
		}
	case dialog.SlotPhoneNumber:
		if m := phoneValue.FindString(utterance); m != "" {
			return m, 0.95, nil
		}
	case dialog.SlotDayPreference:
		if m := dayValue.FindString(utterance); m != "" {
			return capitalize(m), 0.85, nil
		}
	case dialog.SlotTimePreference:
		if m := timeValue.FindString(utterance); m != "" {
			return strings.ToLower(m), 0.85, nil
		}
	case dialog.SlotServiceType:
		if m := serviceValue.FindString(utterance); m != "" {
			return strings.ToLower(m), 0.85, nil
		}
	}
	return "", 0, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
