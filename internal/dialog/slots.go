package dialog

// Slot is one named piece of information the conversation must collect.
// The set of required slots is session configuration, not package data:
// two sessions may track different slot sets.
type Slot string

// Canonical slots for the appointment-booking domain. Nothing in this
// package depends on these specific values; they are the defaults used
// when a session config does not override them.
const (
	SlotCallerName     Slot = "caller_name"
	SlotPhoneNumber    Slot = "phone_number"
	SlotDayPreference  Slot = "day_preference"
	SlotTimePreference Slot = "time_preference"
	SlotServiceType    Slot = "service_type"
)

// DefaultRequiredSlots returns the default required-slot order for a new
// session. Order matters: Missing() and the group planner preserve it.
func DefaultRequiredSlots() []Slot {
	return []Slot{
		SlotCallerName,
		SlotPhoneNumber,
		SlotDayPreference,
		SlotTimePreference,
		SlotServiceType,
	}
}

// AffinityTable declares which slot pairs may be asked about in a single
// question. It is symmetric: Related(a, b) == Related(b, a).
type AffinityTable struct {
	pairs map[[2]Slot]struct{}
}

// NewAffinityTable builds a table from the given pairs.
func NewAffinityTable(pairs ...[2]Slot) AffinityTable {
	t := AffinityTable{pairs: make(map[[2]Slot]struct{}, len(pairs))}
	for _, p := range pairs {
		t.pairs[p] = struct{}{}
	}
	return t
}

// DefaultAffinityTable pairs contact info together and scheduling info together.
func DefaultAffinityTable() AffinityTable {
	return NewAffinityTable(
		[2]Slot{SlotCallerName, SlotPhoneNumber},
		[2]Slot{SlotDayPreference, SlotTimePreference},
		[2]Slot{SlotServiceType, SlotTimePreference},
		[2]Slot{SlotServiceType, SlotDayPreference},
	)
}

// Related reports whether two slots may share one question.
func (t AffinityTable) Related(a, b Slot) bool {
	if _, ok := t.pairs[[2]Slot{a, b}]; ok {
		return true
	}
	_, ok := t.pairs[[2]Slot{b, a}]
	return ok
}
