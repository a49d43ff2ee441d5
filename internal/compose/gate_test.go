package compose

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"dialogue-platform/internal/dialog"
)

type stubGenerator struct {
	available bool
	texts     []string
	qualities []float64
	err       error
	calls     int
}

func (s *stubGenerator) Generate(_ context.Context, _ Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	i := s.calls
	if i >= len(s.texts) {
		i = len(s.texts) - 1
	}
	s.calls++
	return s.texts[i], nil
}

func (s *stubGenerator) AssessQuality(_ context.Context, text string, _ Request) (float64, error) {
	for i, t := range s.texts {
		if t == text {
			return s.qualities[i], nil
		}
	}
	return 0, nil
}

func (s *stubGenerator) Available() bool { return s.available }

func fixedCatalog() *Catalog {
	return NewCatalog(rand.New(rand.NewSource(1)))
}

func TestGatePrimarySuccess(t *testing.T) {
	gen := &stubGenerator{available: true, texts: []string{"What's your name?"}, qualities: []float64{0.9}}
	g := NewGate(gen, fixedCatalog().Fallback, 0.7, 2)

	out := g.Generate(context.Background(), Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}})
	if !out.Valid || out.Method != MethodPrimary || out.Text != "What's your name?" {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestGateRetryKeepsBest(t *testing.T) {
	gen := &stubGenerator{
		available: true,
		texts:     []string{"a", "b", "c"},
		qualities: []float64{0.3, 0.5, 0.8},
	}
	g := NewGate(gen, fixedCatalog().Fallback, 0.7, 2)

	out := g.Generate(context.Background(), Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}})
	if out.Method != MethodPrimaryRetry || out.Text != "c" || out.Quality != 0.8 {
		t.Fatalf("expected best retry to win: %+v", out)
	}
}

func TestGateRetriesExhaustedFallsBack(t *testing.T) {
	gen := &stubGenerator{
		available: true,
		texts:     []string{"a", "b", "c"},
		qualities: []float64{0.3, 0.4, 0.2},
	}
	g := NewGate(gen, fixedCatalog().Fallback, 0.7, 2)

	out := g.Generate(context.Background(), Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}})
	if !out.Valid || out.Method != MethodTemplate {
		t.Fatalf("expected template fallback: %+v", out)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 1 initial + 2 retries, got %d calls", gen.calls)
	}
}

func TestGateUnavailableGenerator(t *testing.T) {
	gen := &stubGenerator{available: false}
	g := NewGate(gen, fixedCatalog().Fallback, 0.7, 2)

	out := g.Generate(context.Background(), Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}})
	if !out.Valid || out.Method != MethodTemplate {
		t.Fatalf("expected template: %+v", out)
	}
	if gen.calls != 0 {
		t.Fatal("unavailable generator must not be called")
	}
}

func TestGateNilGenerator(t *testing.T) {
	g := NewGate(nil, fixedCatalog().Fallback, 0.7, 2)
	out := g.Generate(context.Background(), Request{TargetSlots: []dialog.Slot{dialog.SlotPhoneNumber}})
	if !out.Valid || out.Method != MethodTemplate {
		t.Fatalf("expected template: %+v", out)
	}
}

func TestGateGeneratorFault(t *testing.T) {
	gen := &stubGenerator{available: true, err: errors.New("llm down")}
	g := NewGate(gen, fixedCatalog().Fallback, 0.7, 2)

	out := g.Generate(context.Background(), Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}})
	if !out.Valid || (out.Method != MethodTemplate && out.Method != MethodTemplateFallback) {
		t.Fatalf("faulting generator must still yield valid template outcome: %+v", out)
	}
}

func TestCatalogKeyedTemplates(t *testing.T) {
	c := fixedCatalog()

	out := c.Fallback(Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName, dialog.SlotPhoneNumber}})
	if out.Method != MethodTemplate || out.Quality != templateQuality {
		t.Fatalf("pair key: %+v", out)
	}

	out = c.Fallback(Request{TargetSlots: []dialog.Slot{dialog.SlotDayPreference}})
	if out.Method != MethodTemplate {
		t.Fatalf("single key: %+v", out)
	}

	out = c.Fallback(Request{TargetSlots: []dialog.Slot{"unknown_slot"}})
	if out.Method != MethodTemplateFallback || out.Quality != genericQuality {
		t.Fatalf("generic key: %+v", out)
	}
}

func TestCatalogVariantsVaryButScoreIsFixed(t *testing.T) {
	c := NewCatalog(rand.New(rand.NewSource(42)))
	req := Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}}

	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		out := c.Fallback(req)
		seen[out.Text] = true
		if out.Quality != templateQuality || out.Method != MethodTemplate {
			t.Fatalf("quality/method must be fixed: %+v", out)
		}
	}
	if len(seen) < 2 {
		t.Fatalf("expected multiple variants across runs, saw %d", len(seen))
	}
}
