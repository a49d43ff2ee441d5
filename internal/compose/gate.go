package compose

import "context"

// FallbackFunc produces the deterministic template outcome used when the
// primary generator is unavailable, faults, or stays below the quality
// threshold. It must always return a valid outcome.
type FallbackFunc func(req Request) Outcome

// Gate is the quality-gated generation policy shared by composition and
// closing: try the primary generator, retry below-threshold results a
// bounded number of times keeping the best, then fall back to templates.
//
// The gate never blocks indefinitely on the generator and never returns
// an invalid outcome.
type Gate struct {
	generator        TextGenerator
	fallback         FallbackFunc
	qualityThreshold float64
	maxRetries       int
}

// NewGate builds a gate. generator may be nil (template-only operation);
// fallback must not be nil.
func NewGate(generator TextGenerator, fallback FallbackFunc, qualityThreshold float64, maxRetries int) *Gate {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Gate{
		generator:        generator,
		fallback:         fallback,
		qualityThreshold: qualityThreshold,
		maxRetries:       maxRetries,
	}
}

// Generate runs the gate for one request.
func (g *Gate) Generate(ctx context.Context, req Request) Outcome {
	if g.generator == nil || !g.generator.Available() {
		return g.fallback(req)
	}

	best, ok := g.tryPrimary(ctx, req)
	if !ok {
		return g.fallback(req)
	}
	if best.Quality >= g.qualityThreshold {
		return best
	}

	for retry := 0; retry < g.maxRetries; retry++ {
		attempt, ok := g.tryPrimary(ctx, req)
		if ok && attempt.Quality > best.Quality {
			best = attempt
		}
		if best.Quality >= g.qualityThreshold {
			best.Method = MethodPrimaryRetry
			return best
		}
	}

	return g.fallback(req)
}

// tryPrimary performs one generator call plus its quality assessment.
// Any fault or empty text counts as an invalid attempt.
func (g *Gate) tryPrimary(ctx context.Context, req Request) (Outcome, bool) {
	text, err := g.generator.Generate(ctx, req)
	if err != nil || text == "" {
		return Outcome{}, false
	}
	quality, err := g.generator.AssessQuality(ctx, text, req)
	if err != nil {
		return Outcome{}, false
	}
	return Outcome{Text: text, Quality: quality, Valid: true, Method: MethodPrimary}, true
}
