package extract

import (
	"context"
	"errors"
	"testing"

	"dialogue-platform/internal/dialog"
)

type stubValueProbe struct {
	values map[dialog.Slot]string
	confs  map[dialog.Slot]float64
	errs   map[dialog.Slot]error
}

func (s stubValueProbe) Extract(_ context.Context, _ string, slot dialog.Slot) (string, float64, error) {
	if err := s.errs[slot]; err != nil {
		return "", 0, err
	}
	return s.values[slot], s.confs[slot], nil
}

func TestExtractOrderAndMethod(t *testing.T) {
	primary := stubValueProbe{
		values: map[dialog.Slot]string{dialog.SlotCallerName: "John"},
		confs:  map[dialog.Slot]float64{dialog.SlotCallerName: 0.9},
	}
	e := New(primary, nil, 0.5)

	outcomes := e.Extract(context.Background(), "Hi I'm John", []dialog.Slot{dialog.SlotCallerName, dialog.SlotPhoneNumber})
	if outcomes[0].Slot != dialog.SlotCallerName || !outcomes[0].Found || outcomes[0].Method != MethodModel {
		t.Fatalf("outcome 0: %+v", outcomes[0])
	}
	if outcomes[1].Found || outcomes[1].Method != MethodNone {
		t.Fatalf("outcome 1: %+v", outcomes[1])
	}
}

func TestExtractWithFallbackReplacesMisses(t *testing.T) {
	primary := stubValueProbe{
		values: map[dialog.Slot]string{dialog.SlotCallerName: "John"},
		confs:  map[dialog.Slot]float64{dialog.SlotCallerName: 0.9},
	}
	fallback := stubValueProbe{
		values: map[dialog.Slot]string{dialog.SlotPhoneNumber: "5551234567"},
		confs:  map[dialog.Slot]float64{dialog.SlotPhoneNumber: 0.6},
	}
	e := New(primary, fallback, 0.5)

	outcomes := e.ExtractWithFallback(context.Background(), "x", []dialog.Slot{dialog.SlotCallerName, dialog.SlotPhoneNumber})
	if outcomes[0].Method != MethodModel {
		t.Fatalf("primary hit must not be replaced: %+v", outcomes[0])
	}
	if !outcomes[1].Found || outcomes[1].Method != MethodFallback || outcomes[1].Value != "5551234567" {
		t.Fatalf("fallback should fill the miss: %+v", outcomes[1])
	}
}

func TestExtractWithFallbackLowConfidence(t *testing.T) {
	primary := stubValueProbe{
		values: map[dialog.Slot]string{dialog.SlotCallerName: "jhn"},
		confs:  map[dialog.Slot]float64{dialog.SlotCallerName: 0.2},
	}
	fallback := stubValueProbe{
		values: map[dialog.Slot]string{dialog.SlotCallerName: "John"},
		confs:  map[dialog.Slot]float64{dialog.SlotCallerName: 0.7},
	}
	e := New(primary, fallback, 0.5)

	outcomes := e.ExtractWithFallback(context.Background(), "x", []dialog.Slot{dialog.SlotCallerName})
	if outcomes[0].Value != "John" || outcomes[0].Method != MethodFallback {
		t.Fatalf("low-confidence primary should be replaced: %+v", outcomes[0])
	}
}

func TestExtractProbeFault(t *testing.T) {
	primary := stubValueProbe{errs: map[dialog.Slot]error{dialog.SlotCallerName: errors.New("boom")}}
	e := New(primary, nil, 0.5)

	outcomes := e.Extract(context.Background(), "x", []dialog.Slot{dialog.SlotCallerName})
	if outcomes[0].Found {
		t.Fatalf("fault must yield not-found: %+v", outcomes[0])
	}
}

func TestUpdates(t *testing.T) {
	outcomes := []Outcome{
		{Slot: dialog.SlotCallerName, Value: "John", Found: true},
		{Slot: dialog.SlotPhoneNumber, Found: false},
		{Slot: dialog.SlotDayPreference, Value: "", Found: true},
	}
	updates := Updates(outcomes)
	if len(updates) != 1 || updates[dialog.SlotCallerName] != "John" {
		t.Fatalf("updates: %v", updates)
	}
}

func TestPatternProbe(t *testing.T) {
	p := NewPatternProbe()
	ctx := context.Background()

	cases := []struct {
		utterance string
		slot      dialog.Slot
		want      string
	}{
		{"Hi I'm John", dialog.SlotCallerName, "John"},
		{"My number is 555-123-4567", dialog.SlotPhoneNumber, "555-123-4567"},
		{"Can I book for Friday at 2 PM?", dialog.SlotDayPreference, "Friday"},
		{"Can I book for Friday at 2 PM?", dialog.SlotTimePreference, "2 pm"},
		{"I need a haircut", dialog.SlotServiceType, "haircut"},
	}
	for _, tc := range cases {
		got, _, err := p.Extract(ctx, tc.utterance, tc.slot)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.utterance, tc.slot, err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: expected %q, got %q", tc.utterance, tc.slot, tc.want, got)
		}
	}

	if got, _, _ := p.Extract(ctx, "What are your hours?", dialog.SlotServiceType); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}
