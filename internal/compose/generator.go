// Package compose produces the user-facing follow-up questions and, via
// the shared GenerationGate, the quality-gated primary/fallback policy
// reused by closing generation.
package compose

import (
	"context"

	"dialogue-platform/internal/dialog"
)

// Method records which generation path produced the text.
type Method string

const (
	MethodNone             Method = "none"
	MethodPrimary          Method = "primary"
	MethodPrimaryRetry     Method = "primary_retry"
	MethodTemplate         Method = "template"
	MethodTemplateFallback Method = "template_fallback"
)

// Outcome is the shared result shape for composition and closing.
type Outcome struct {
	Text    string  `json:"text"`
	Quality float64 `json:"quality"`
	Valid   bool    `json:"valid"`
	Method  Method  `json:"method"`
}

// Request describes one generation call: the slots the text should ask
// about (empty for closing), what is already known, and conversational
// context for phrasing.
type Request struct {
	TargetSlots []dialog.Slot
	Known       map[dialog.Slot]string
	Context     string
}

// TextGenerator is the primary (typically LLM-backed) generator. The
// gate treats it as a black box with bounded latency; it is never called
// while any lock is held.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
	AssessQuality(ctx context.Context, text string, req Request) (float64, error)
	Available() bool
}
