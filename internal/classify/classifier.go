// Package classify decides which slots an utterance mentions.
//
// The actual per-slot decision is a black box behind SlotProbe; this
// package owns the bounded parallel fan-out and the shared confidence
// threshold that turns probe confidences into detected/not-detected.
package classify

import (
	"context"
	"sync"

	"dialogue-platform/internal/dialog"
)

// Outcome is the per-slot classification record.
type Outcome struct {
	Slot       dialog.Slot `json:"slot"`
	Confidence float64     `json:"confidence"`
	Detected   bool        `json:"detected"`
}

// SlotProbe scores one slot against an utterance. Implementations must be
// safe to call concurrently, one call per slot, and must not share mutable
// state between probes.
type SlotProbe interface {
	Probe(ctx context.Context, utterance string, slot dialog.Slot) (confidence float64, err error)
}

// Classifier runs one probe per slot in parallel and applies a single
// threshold shared across slots.
type Classifier struct {
	probe     SlotProbe
	threshold float64
}

// New builds a classifier. The threshold applies to every slot.
func New(probe SlotProbe, threshold float64) *Classifier {
	return &Classifier{probe: probe, threshold: threshold}
}

// ClassifyAll probes every slot concurrently and returns outcomes in the
// given slot order. A probe failure yields a not-detected outcome for that
// slot rather than failing the call.
func (c *Classifier) ClassifyAll(ctx context.Context, utterance string, slots []dialog.Slot) []Outcome {
	outcomes := make([]Outcome, len(slots))

	var wg sync.WaitGroup
	for i, slot := range slots {
		wg.Add(1)
		go func(i int, slot dialog.Slot) {
			defer wg.Done()
			out := Outcome{Slot: slot}
			conf, err := c.probe.Probe(ctx, utterance, slot)
			if err == nil {
				out.Confidence = conf
				out.Detected = conf >= c.threshold
			}
			outcomes[i] = out
		}(i, slot)
	}
	wg.Wait()

	return outcomes
}

// Partition splits outcomes into detected and not-detected slot lists,
// preserving outcome order.
func Partition(outcomes []Outcome) (detected, missing []dialog.Slot) {
	for _, o := range outcomes {
		if o.Detected {
			detected = append(detected, o.Slot)
		} else {
			missing = append(missing, o.Slot)
		}
	}
	return detected, missing
}
