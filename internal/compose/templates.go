package compose

import (
	"math/rand"
	"strings"
	"sync"

	"dialogue-platform/internal/dialog"
)

// Catalog holds deterministic question templates keyed by the exact
// ordered target-slot set ("a+b" for pairs, "a" for singles). Variant
// selection is uniformly random over the key's variants; the RNG is
// injected so tests can pin it.
type Catalog struct {
	mu       sync.Mutex
	rng      *rand.Rand
	variants map[string][]string
}

const (
	templateQuality = 0.8
	genericQuality  = 0.5
	genericQuestion = "Could you please provide some additional information?"
)

// NewCatalog builds the default appointment-domain question catalog.
func NewCatalog(rng *rand.Rand) *Catalog {
	return &Catalog{
		rng: rng,
		variants: map[string][]string{
			"caller_name+phone_number": {
				"Great! Can you please tell me your name and phone number?",
				"I'd like to get your name and contact number, please.",
				"Could you provide your name and a phone number where I can reach you?",
			},
			"day_preference+time_preference": {
				"What day and time would work best for your appointment?",
				"When would you prefer to schedule this? What day and time?",
				"Could you let me know your preferred day and time?",
			},
			"service_type+time_preference": {
				"What service are you looking for and what time would work for you?",
				"Which service do you need and when would you prefer to come in?",
				"What type of appointment do you need and what time works best?",
			},
			"service_type+day_preference": {
				"What service do you need and what day suits you?",
				"Which service are you after, and which day works for you?",
			},
			"caller_name": {
				"May I have your name, please?",
				"Could you tell me your name?",
				"What name should I put this appointment under?",
			},
			"phone_number": {
				"What's the best phone number to reach you at?",
				"Could I get a contact number for you?",
				"What phone number should I use for this appointment?",
			},
			"day_preference": {
				"What day would work best for you?",
				"Which day would you prefer for your appointment?",
				"What day are you looking to schedule this?",
			},
			"time_preference": {
				"What time would work best for you?",
				"Do you have a preferred time?",
				"What time would you like to come in?",
			},
			"service_type": {
				"What service are you looking for today?",
				"Which service do you need?",
				"What type of appointment would you like to schedule?",
			},
		},
	}
}

// Greetings used when a session is created, before any user turn.
var greetings = []string{
	"Hello! I'm here to help you book your appointment.",
	"Hi there! I'd love to help you schedule your appointment.",
	"Welcome! Let's book your appointment together.",
}

// Greeting picks a random greeting variant.
func (c *Catalog) Greeting() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return greetings[c.rng.Intn(len(greetings))]
}

// Fallback builds the deterministic template outcome for a request.
// A matched slot key yields method=template with a fixed quality score;
// an unmatched key yields the generic question with method=template_fallback.
func (c *Catalog) Fallback(req Request) Outcome {
	key := templateKey(req.TargetSlots)

	c.mu.Lock()
	defer c.mu.Unlock()

	vs, ok := c.variants[key]
	if !ok || len(vs) == 0 {
		return Outcome{
			Text:    genericQuestion,
			Quality: genericQuality,
			Valid:   true,
			Method:  MethodTemplateFallback,
		}
	}
	return Outcome{
		Text:    vs[c.rng.Intn(len(vs))],
		Quality: templateQuality,
		Valid:   true,
		Method:  MethodTemplate,
	}
}

func templateKey(slots []dialog.Slot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = string(s)
	}
	return strings.Join(parts, "+")
}
