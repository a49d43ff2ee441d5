package pipeline

import "testing"

func TestRecommendShrinksUnderHighLoad(t *testing.T) {
	m := NewLoadMonitor(4)
	for i := 0; i < 5; i++ {
		m.TurnStarted()
	}

	if got := m.Recommend(3); got != 2 {
		t.Fatalf("Recommend(3) = %d under load 5/4 cores, want 2", got)
	}
}

func TestRecommendNeverShrinksBelowOne(t *testing.T) {
	m := NewLoadMonitor(1)
	m.TurnStarted()
	m.TurnStarted()

	if got := m.Recommend(1); got != 1 {
		t.Fatalf("Recommend(1) = %d, want floor of 1", got)
	}
}

func TestRecommendGrowsWhenUnderloaded(t *testing.T) {
	m := NewLoadMonitor(8)
	m.TurnStarted() // 1 active < 8/2

	if got := m.Recommend(2); got != 3 {
		t.Fatalf("Recommend(2) = %d when underloaded, want 3", got)
	}
}

func TestRecommendCapsGrowth(t *testing.T) {
	m := NewLoadMonitor(2)

	if got := m.Recommend(4); got != 4 {
		t.Fatalf("Recommend(4) = %d, want growth capped at 2x cores", got)
	}
}

func TestRecommendHoldsSteadyInBand(t *testing.T) {
	m := NewLoadMonitor(4)
	m.TurnStarted()
	m.TurnStarted() // 2 active: not > 4 and not < 2

	if got := m.Recommend(3); got != 3 {
		t.Fatalf("Recommend(3) = %d in steady band, want 3", got)
	}
}

func TestActiveTracksStartsAndFinishes(t *testing.T) {
	m := NewLoadMonitor(4)
	m.TurnStarted()
	m.TurnStarted()
	m.TurnFinished()

	if got := m.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1", got)
	}
}
