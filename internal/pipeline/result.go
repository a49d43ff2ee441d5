package pipeline

import (
	"time"

	"dialogue-platform/internal/classify"
	"dialogue-platform/internal/closing"
	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/dialog"
	"dialogue-platform/internal/extract"
)

// SlotResult merges one slot's classification and extraction outcomes.
// Extraction fields stay zero for slots that were not detected.
type SlotResult struct {
	Slot                     dialog.Slot    `json:"slot"`
	Detected                 bool           `json:"detected"`
	ClassificationConfidence float64        `json:"classification_confidence"`
	Value                    string         `json:"value,omitempty"`
	Found                    bool           `json:"found"`
	ExtractionConfidence     float64        `json:"extraction_confidence,omitempty"`
	Method                   extract.Method `json:"method,omitempty"`
}

// Timing is the turn's stage breakdown.
type Timing struct {
	Classification  time.Duration `json:"classification_ms"`
	Extraction      time.Duration `json:"extraction_ms"`
	Composition     time.Duration `json:"composition_ms"`
	Closing         time.Duration `json:"closing_ms"`
	Total           time.Duration `json:"total_ms"`
	ConcurrentTasks int           `json:"concurrent_tasks"`
	WorkerCount     int           `json:"worker_count"`
}

// TurnResult is the full synchronous response to one utterance. Built
// fresh per turn and returned to the caller; never retained.
type TurnResult struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`

	Slots []SlotResult `json:"slots"`

	CompositionTriggered bool             `json:"composition_triggered"`
	Composition          *compose.Outcome `json:"composition,omitempty"`

	ClosingTriggered bool            `json:"closing_triggered"`
	Closing          *closing.Result `json:"closing,omitempty"`

	// AppointmentID is set when closing produced a stored booking.
	AppointmentID string `json:"appointment_id,omitempty"`

	Missing           []dialog.Slot `json:"missing"`
	Complete          bool          `json:"complete"`
	CompletionPercent float64       `json:"completion_percent"`

	Timing Timing `json:"timing"`
}

// combineSlotResults folds extraction outcomes into the classification
// outcomes, preserving classification order.
func combineSlotResults(classified []classify.Outcome, extracted []extract.Outcome) []SlotResult {
	bySlot := map[dialog.Slot]extract.Outcome{}
	for _, e := range extracted {
		bySlot[e.Slot] = e
	}

	results := make([]SlotResult, len(classified))
	for i, c := range classified {
		r := SlotResult{
			Slot:                     c.Slot,
			Detected:                 c.Detected,
			ClassificationConfidence: c.Confidence,
		}
		if e, ok := bySlot[c.Slot]; ok {
			r.Value = e.Value
			r.Found = e.Found
			r.ExtractionConfidence = e.Confidence
			r.Method = e.Method
		}
		results[i] = r
	}
	return results
}
