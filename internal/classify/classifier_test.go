package classify

import (
	"context"
	"errors"
	"testing"

	"dialogue-platform/internal/dialog"
)

type stubProbe struct {
	scores map[dialog.Slot]float64
	errs   map[dialog.Slot]error
}

func (s stubProbe) Probe(_ context.Context, _ string, slot dialog.Slot) (float64, error) {
	if err := s.errs[slot]; err != nil {
		return 0, err
	}
	return s.scores[slot], nil
}

func TestClassifyAllThreshold(t *testing.T) {
	probe := stubProbe{scores: map[dialog.Slot]float64{
		dialog.SlotCallerName:  0.9,
		dialog.SlotPhoneNumber: 0.69,
	}}
	c := New(probe, 0.7)

	outcomes := c.ClassifyAll(context.Background(), "hi", []dialog.Slot{dialog.SlotCallerName, dialog.SlotPhoneNumber})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Detected || outcomes[0].Slot != dialog.SlotCallerName {
		t.Fatalf("caller_name should be detected: %+v", outcomes[0])
	}
	if outcomes[1].Detected {
		t.Fatalf("phone_number below threshold should not be detected: %+v", outcomes[1])
	}
}

func TestClassifyAllOrderMatchesInput(t *testing.T) {
	probe := stubProbe{scores: map[dialog.Slot]float64{}}
	c := New(probe, 0.5)

	slots := dialog.DefaultRequiredSlots()
	outcomes := c.ClassifyAll(context.Background(), "x", slots)
	for i, slot := range slots {
		if outcomes[i].Slot != slot {
			t.Fatalf("outcome %d: expected %s, got %s", i, slot, outcomes[i].Slot)
		}
	}
}

func TestClassifyAllProbeFailure(t *testing.T) {
	probe := stubProbe{
		scores: map[dialog.Slot]float64{dialog.SlotCallerName: 0.9},
		errs:   map[dialog.Slot]error{dialog.SlotPhoneNumber: errors.New("model unavailable")},
	}
	c := New(probe, 0.5)

	outcomes := c.ClassifyAll(context.Background(), "x", []dialog.Slot{dialog.SlotCallerName, dialog.SlotPhoneNumber})
	if !outcomes[0].Detected {
		t.Fatal("healthy probe should still detect")
	}
	if outcomes[1].Detected || outcomes[1].Confidence != 0 {
		t.Fatalf("failed probe must yield not-detected: %+v", outcomes[1])
	}
}

func TestPartition(t *testing.T) {
	outcomes := []Outcome{
		{Slot: dialog.SlotCallerName, Detected: true},
		{Slot: dialog.SlotPhoneNumber, Detected: false},
		{Slot: dialog.SlotDayPreference, Detected: true},
	}
	detected, missing := Partition(outcomes)
	if len(detected) != 2 || detected[0] != dialog.SlotCallerName || detected[1] != dialog.SlotDayPreference {
		t.Fatalf("detected: %v", detected)
	}
	if len(missing) != 1 || missing[0] != dialog.SlotPhoneNumber {
		t.Fatalf("missing: %v", missing)
	}
}

func TestKeywordProbe(t *testing.T) {
	p := NewKeywordProbe()
	ctx := context.Background()

	conf, err := p.Probe(ctx, "Hi I'm John", dialog.SlotCallerName)
	if err != nil || conf < 0.5 {
		t.Fatalf("expected name hit, got %f err %v", conf, err)
	}

	conf, _ = p.Probe(ctx, "My number is 555-123-4567", dialog.SlotPhoneNumber)
	if conf < 0.5 {
		t.Fatalf("expected phone hit, got %f", conf)
	}

	conf, _ = p.Probe(ctx, "Can I book for Friday at 2 PM?", dialog.SlotDayPreference)
	if conf < 0.5 {
		t.Fatalf("expected day hit, got %f", conf)
	}
	conf, _ = p.Probe(ctx, "Can I book for Friday at 2 PM?", dialog.SlotTimePreference)
	if conf < 0.5 {
		t.Fatalf("expected time hit, got %f", conf)
	}

	conf, _ = p.Probe(ctx, "What are your hours today?", dialog.SlotServiceType)
	if conf != 0 {
		t.Fatalf("expected no service hit, got %f", conf)
	}
}
