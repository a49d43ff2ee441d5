package dialog

// GroupPlanner groups missing slots into asking-units of at most two
// related slots, so one question never asks for more than two things.
//
// Grouping is deterministic for a fixed missing order and affinity table:
// the first ungrouped slot seeds a group, the remaining pool is scanned in
// order for a related partner, and the pair (or the seed alone) is emitted.
type GroupPlanner struct {
	affinity AffinityTable
}

// NewGroupPlanner builds a planner over the given affinity table.
func NewGroupPlanner(affinity AffinityTable) *GroupPlanner {
	return &GroupPlanner{affinity: affinity}
}

// Group partitions missing into ordered groups of 1 or 2 slots.
func (p *GroupPlanner) Group(missing []Slot) [][]Slot {
	remaining := make([]Slot, len(missing))
	copy(remaining, missing)

	var groups [][]Slot
	for len(remaining) > 0 {
		seed := remaining[0]
		remaining = remaining[1:]
		group := []Slot{seed}

		for i, candidate := range remaining {
			if p.affinity.Related(seed, candidate) {
				group = append(group, candidate)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// NextGroup returns the first group for the given missing slots, or nil
// when nothing is missing. One turn asks about one group only; the rest
// are deferred to later turns.
func (p *GroupPlanner) NextGroup(missing []Slot) []Slot {
	groups := p.Group(missing)
	if len(groups) == 0 {
		return nil
	}
	return groups[0]
}
