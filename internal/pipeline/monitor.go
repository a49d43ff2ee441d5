package pipeline

import (
	"runtime"
	"sync/atomic"
)

// LoadMonitor counts concurrently-active turns and advises worker-pool
// sizing from that load. Advice is applied between turns, never mid-turn.
type LoadMonitor struct {
	cores  int
	active atomic.Int64
}

// NewLoadMonitor builds a monitor. cores <= 0 means use the machine's
// logical CPU count.
func NewLoadMonitor(cores int) *LoadMonitor {
	if cores < 1 {
		cores = runtime.NumCPU()
	}
	return &LoadMonitor{cores: cores}
}

func (m *LoadMonitor) TurnStarted()  { m.active.Add(1) }
func (m *LoadMonitor) TurnFinished() { m.active.Add(-1) }

func (m *LoadMonitor) Active() int {
	return int(m.active.Load())
}

// Recommend returns the advised pool size given the current one: shrink
// by one when active turns exceed the core count, grow by one when the
// system is under half-loaded. Bounded to [1, 2*cores].
func (m *LoadMonitor) Recommend(current int) int {
	load := int(m.active.Load())
	switch {
	case load > m.cores && current > 1:
		return current - 1
	case load < m.cores/2 && current < 2*m.cores:
		return current + 1
	}
	return current
}
