package classify

import (
	"context"
	"regexp"
	"strings"

	"dialogue-platform/internal/dialog"
)

// KeywordProbe is a deterministic keyword/pattern probe useful for tests
// and early development. Production deployments plug in a model-backed
// probe; this one exists so the pipeline runs without one.
//
// NOTE: not intended to be linguistically clever. Exact substring and
// pattern matches only.
type KeywordProbe struct {
	keywords map[dialog.Slot][]string
	patterns map[dialog.Slot]*regexp.Regexp
}

var (
	phonePattern = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}-\d{4}`)
	timePattern  = regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2})?\s*(am|pm)\b`)
)

// NewKeywordProbe builds the default appointment-domain probe.
func NewKeywordProbe() *KeywordProbe {
	return &KeywordProbe{
		keywords: map[dialog.Slot][]string{
			dialog.SlotCallerName: {"i'm ", "i am ", "my name is", "this is "},
			dialog.SlotPhoneNumber: {"my number", "phone", "reach me", "call me"},
			dialog.SlotDayPreference: {
				"monday", "tuesday", "wednesday", "thursday",
				"friday", "saturday", "sunday", "today", "tomorrow",
			},
			dialog.SlotTimePreference: {"morning", "afternoon", "evening", "noon", "o'clock"},
			dialog.SlotServiceType:    {"haircut", "color", "coloring", "trim", "styling", "blowout", "perm"},
		},
		patterns: map[dialog.Slot]*regexp.Regexp{
			dialog.SlotPhoneNumber:    phonePattern,
			dialog.SlotTimePreference: timePattern,
		},
	}
}

// Probe scores one slot. Keyword or pattern hits score high, otherwise zero.
func (p *KeywordProbe) Probe(_ context.Context, utterance string, slot dialog.Slot) (float64, error) {
	lower := strings.ToLower(utterance)

	if re, ok := p.patterns[slot]; ok && re.MatchString(utterance) {
		return 0.95, nil
	}
	for _, kw := range p.keywords[slot] {
		if strings.Contains(lower, kw) {
			return 0.9, nil
		}
	}
	return 0, nil
}
