package dialog

import (
	"sync"
	"testing"
)

func TestApplyIdempotent(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())

	s.Apply(map[Slot]string{SlotCallerName: "John"})
	first := s.Snapshot()

	s.Apply(map[Slot]string{SlotCallerName: "John"})
	second := s.Snapshot()

	if len(first) != len(second) {
		t.Fatalf("expected identical snapshots, got %v and %v", first, second)
	}
	if second[SlotCallerName] != "John" {
		t.Fatalf("expected John, got %q", second[SlotCallerName])
	}
}

func TestApplyEmptyDoesNotClear(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())

	s.Apply(map[Slot]string{SlotPhoneNumber: "555-123-4567"})
	s.Apply(map[Slot]string{SlotPhoneNumber: ""})

	if got := s.Get(SlotPhoneNumber); got != "555-123-4567" {
		t.Fatalf("empty update must not clear: got %q", got)
	}
}

func TestApplyOverwrites(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())

	s.Apply(map[Slot]string{SlotDayPreference: "Monday"})
	s.Apply(map[Slot]string{SlotDayPreference: "Friday"})

	if got := s.Get(SlotDayPreference); got != "Friday" {
		t.Fatalf("expected Friday, got %q", got)
	}
}

func TestMissingOrderIsStable(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())
	s.Apply(map[Slot]string{SlotCallerName: "Sarah"})

	want := []Slot{SlotPhoneNumber, SlotDayPreference, SlotTimePreference, SlotServiceType}
	got := s.Missing()
	if len(got) != len(want) {
		t.Fatalf("expected %d missing, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("missing[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCompletionMonotonic(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())
	for _, slot := range DefaultRequiredSlots() {
		s.Apply(map[Slot]string{slot: "x"})
	}
	if !s.IsComplete() {
		t.Fatal("expected complete")
	}

	// Non-empty overwrites and empty no-ops can never undo completion.
	s.Apply(map[Slot]string{SlotCallerName: "y"})
	s.Apply(map[Slot]string{SlotServiceType: ""})
	if !s.IsComplete() {
		t.Fatal("completion must be monotonic under Apply")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())
	s.Apply(map[Slot]string{SlotCallerName: "John"})

	snap := s.Snapshot()
	snap[SlotCallerName] = "mutated"

	if got := s.Get(SlotCallerName); got != "John" {
		t.Fatalf("snapshot mutation leaked into state: got %q", got)
	}
}

func TestConcurrentApply(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Apply(map[Slot]string{SlotCallerName: "John", SlotPhoneNumber: "5551234567"})
			_ = s.Snapshot()
			_ = s.Missing()
		}()
	}
	wg.Wait()

	if got := s.Get(SlotCallerName); got != "John" {
		t.Fatalf("expected John after concurrent applies, got %q", got)
	}
}

func TestResetClearsValuesKeepsRequired(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())
	s.Apply(map[Slot]string{SlotCallerName: "John", SlotPhoneNumber: "5551234567"})

	s.Reset()

	if got := s.Get(SlotCallerName); got != "" {
		t.Fatalf("expected cleared value, got %q", got)
	}
	if got := len(s.Missing()); got != len(DefaultRequiredSlots()) {
		t.Fatalf("expected all slots missing after reset, got %d", got)
	}
}

func TestCompletionPercent(t *testing.T) {
	s := NewSessionState(DefaultRequiredSlots())
	if got := s.CompletionPercent(); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
	s.Apply(map[Slot]string{SlotCallerName: "a"})
	if got := s.CompletionPercent(); got != 20 {
		t.Fatalf("expected 20, got %f", got)
	}
}
