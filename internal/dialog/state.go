package dialog

import "sync"

// SessionState holds the slot values collected so far for one conversation.
//
// Contract:
// - A slot is "known" iff present with a non-empty value.
// - All access goes through the single mutex; no method blocks on I/O
//   while holding it.
// - Callers always receive copies, never live references to the map.
type SessionState struct {
	mu       sync.Mutex
	values   map[Slot]string
	required []Slot
}

// NewSessionState creates empty state tracking the given required slots.
// The required order is preserved and drives question ordering.
func NewSessionState(required []Slot) *SessionState {
	req := make([]Slot, len(required))
	copy(req, required)
	return &SessionState{
		values:   make(map[Slot]string, len(required)),
		required: req,
	}
}

// Snapshot returns a point-in-time copy of all known (non-empty) values.
func (s *SessionState) Snapshot() map[Slot]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Slot]string, len(s.values))
	for k, v := range s.values {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Apply atomically merges non-empty updates. An empty value means
// "no update", never "clear": previously set slots are never removed.
func (s *SessionState) Apply(updates map[Slot]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range updates {
		if v != "" {
			s.values[k] = v
		}
	}
}

// Get returns the value for one slot, empty if unknown.
func (s *SessionState) Get(slot Slot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[slot]
}

// Missing returns the required slots not yet known, in required order.
func (s *SessionState) Missing() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []Slot
	for _, slot := range s.required {
		if s.values[slot] == "" {
			missing = append(missing, slot)
		}
	}
	return missing
}

// IsComplete reports whether every required slot is known.
func (s *SessionState) IsComplete() bool {
	return len(s.Missing()) == 0
}

// Required returns a copy of the required-slot order.
func (s *SessionState) Required() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slot, len(s.required))
	copy(out, s.required)
	return out
}

// CompletionPercent returns filled/required as a percentage.
func (s *SessionState) CompletionPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.required) == 0 {
		return 100
	}
	filled := 0
	for _, slot := range s.required {
		if s.values[slot] != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(s.required)) * 100
}

// Reset clears all collected values. The required set is unchanged.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[Slot]string, len(s.required))
}
