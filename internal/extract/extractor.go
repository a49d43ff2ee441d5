// Package extract pulls slot values out of an utterance for slots the
// classifier already detected.
//
// Like classify, the per-slot model is a black box behind ValueProbe.
// The package adds the bounded parallel fan-out and the per-slot fallback
// strategy used when the primary probe misses or scores low.
package extract

import (
	"context"
	"sync"

	"dialogue-platform/internal/dialog"
)

// Method records which strategy produced a value.
type Method string

const (
	MethodNone     Method = "none"
	MethodModel    Method = "model"
	MethodFallback Method = "fallback"
)

// Outcome is the per-slot extraction record.
type Outcome struct {
	Slot       dialog.Slot `json:"slot"`
	Value      string      `json:"value"`
	Found      bool        `json:"found"`
	Confidence float64     `json:"confidence"`
	Method     Method      `json:"method"`
}

// ValueProbe extracts one slot's value from an utterance. Implementations
// must be safe to call concurrently, one call per slot.
type ValueProbe interface {
	Extract(ctx context.Context, utterance string, slot dialog.Slot) (value string, confidence float64, err error)
}

// Extractor fans out one probe per target slot. It never retries the
// probe itself; the fallback probe is the only secondary strategy.
type Extractor struct {
	primary   ValueProbe
	fallback  ValueProbe
	threshold float64
}

// New builds an extractor. fallback may be nil, in which case
// ExtractWithFallback degrades to Extract.
func New(primary, fallback ValueProbe, threshold float64) *Extractor {
	return &Extractor{primary: primary, fallback: fallback, threshold: threshold}
}

// Extract runs the primary probe for each slot concurrently and returns
// outcomes in slot order. Probe faults yield not-found outcomes.
func (e *Extractor) Extract(ctx context.Context, utterance string, slots []dialog.Slot) []Outcome {
	outcomes := make([]Outcome, len(slots))

	var wg sync.WaitGroup
	for i, slot := range slots {
		wg.Add(1)
		go func(i int, slot dialog.Slot) {
			defer wg.Done()
			outcomes[i] = e.probeOne(ctx, utterance, slot)
		}(i, slot)
	}
	wg.Wait()

	return outcomes
}

// ExtractWithFallback runs Extract, then applies the fallback probe to
// every slot that was not found or scored below the threshold. A fallback
// result replaces the primary one only when it actually finds a value.
func (e *Extractor) ExtractWithFallback(ctx context.Context, utterance string, slots []dialog.Slot) []Outcome {
	outcomes := e.Extract(ctx, utterance, slots)
	if e.fallback == nil {
		return outcomes
	}

	for i, out := range outcomes {
		if out.Found && out.Confidence >= e.threshold {
			continue
		}
		value, conf, err := e.fallback.Extract(ctx, utterance, out.Slot)
		if err != nil || value == "" {
			continue
		}
		outcomes[i] = Outcome{
			Slot:       out.Slot,
			Value:      value,
			Found:      true,
			Confidence: conf,
			Method:     MethodFallback,
		}
	}
	return outcomes
}

func (e *Extractor) probeOne(ctx context.Context, utterance string, slot dialog.Slot) Outcome {
	out := Outcome{Slot: slot, Method: MethodNone}
	value, conf, err := e.primary.Extract(ctx, utterance, slot)
	if err != nil || value == "" {
		return out
	}
	out.Value = value
	out.Found = true
	out.Confidence = conf
	out.Method = MethodModel
	return out
}

// Updates converts found outcomes into a SessionState update batch.
func Updates(outcomes []Outcome) map[dialog.Slot]string {
	updates := make(map[dialog.Slot]string, len(outcomes))
	for _, o := range outcomes {
		if o.Found && o.Value != "" {
			updates[o.Slot] = o.Value
		}
	}
	return updates
}
