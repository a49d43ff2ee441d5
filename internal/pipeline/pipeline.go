// Package pipeline orchestrates one dialogue turn: classification, then
// extraction and question composition in parallel, then closing once all
// required slots are filled. It owns the worker pool that bounds
// generation work and the load monitor that resizes it between turns.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dialogue-platform/internal/appointment"
	"dialogue-platform/internal/classify"
	"dialogue-platform/internal/closing"
	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/dialog"
	"dialogue-platform/internal/extract"
)

// TurnPipeline drives the per-turn state machine. One instance serves all
// sessions; per-session exclusivity is enforced by the registry's turn
// gate, so two turns for the same session never overlap.
type TurnPipeline struct {
	log *slog.Logger

	registry   *dialog.Registry
	classifier *classify.Classifier
	extractor  *extract.Extractor
	planner    *dialog.GroupPlanner
	gate       *compose.Gate
	closer     *closing.Closer

	// appointments may be nil when bookings are not persisted.
	appointments *appointment.Service

	pool    *WorkerPool
	monitor *LoadMonitor

	timingMu   sync.Mutex
	lastTiming Timing
}

func New(
	log *slog.Logger,
	registry *dialog.Registry,
	classifier *classify.Classifier,
	extractor *extract.Extractor,
	planner *dialog.GroupPlanner,
	gate *compose.Gate,
	closer *closing.Closer,
	appointments *appointment.Service,
	pool *WorkerPool,
	monitor *LoadMonitor,
) *TurnPipeline {
	return &TurnPipeline{
		log:          log,
		registry:     registry,
		classifier:   classifier,
		extractor:    extractor,
		planner:      planner,
		gate:         gate,
		closer:       closer,
		appointments: appointments,
		pool:         pool,
		monitor:      monitor,
	}
}

// CreateSession registers a new session with the given required slots.
func (p *TurnPipeline) CreateSession(sessionID string, required []dialog.Slot) error {
	_, err := p.registry.Create(sessionID, required)
	return err
}

// FirstPrompt composes the opening question for a just-created session,
// targeting the first slot group in required order.
func (p *TurnPipeline) FirstPrompt(ctx context.Context, sessionID string) (compose.Outcome, error) {
	state, err := p.registry.Get(sessionID)
	if err != nil {
		return compose.Outcome{}, err
	}
	missing := state.Missing()
	if len(missing) == 0 {
		return compose.Outcome{}, nil
	}
	req := compose.Request{
		TargetSlots: p.planner.NextGroup(missing),
		Known:       state.Snapshot(),
	}
	return p.gate.Generate(ctx, req), nil
}

// StateSnapshot returns a point-in-time copy of a session's known values.
func (p *TurnPipeline) StateSnapshot(sessionID string) (map[dialog.Slot]string, []dialog.Slot, error) {
	state, err := p.registry.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	return state.Snapshot(), state.Missing(), nil
}

// EndSession releases a session and returns its final values.
func (p *TurnPipeline) EndSession(sessionID string) (map[dialog.Slot]string, error) {
	return p.registry.End(sessionID)
}

// ResetSession clears a session's collected values and returns the
// refreshed missing list. It holds the turn gate while clearing, so a
// reset never races an in-flight turn.
func (p *TurnPipeline) ResetSession(sessionID string) ([]dialog.Slot, error) {
	state, err := p.registry.BeginTurn(sessionID)
	if err != nil {
		return nil, err
	}
	defer p.registry.EndTurn(sessionID)
	state.Reset()
	return state.Missing(), nil
}

// Status reports the pool size, active turn count, and open session count.
func (p *TurnPipeline) Status() (workers, activeTurns, activeSessions int) {
	return p.pool.Size(), p.monitor.Active(), p.registry.Count()
}

// LastTiming returns the stage breakdown of the most recently completed
// turn across all sessions.
func (p *TurnPipeline) LastTiming() Timing {
	p.timingMu.Lock()
	defer p.timingMu.Unlock()
	return p.lastTiming
}

// RunTurn processes one utterance for a session. It only fails for an
// unknown session or a concurrent turn on the same session; every stage
// fault inside the turn degrades to a fallback outcome instead.
func (p *TurnPipeline) RunTurn(ctx context.Context, sessionID, utterance string) (TurnResult, error) {
	state, err := p.registry.BeginTurn(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	defer p.registry.EndTurn(sessionID)

	p.monitor.TurnStarted()
	defer func() {
		p.monitor.TurnFinished()
		p.adjustPool()
	}()

	start := time.Now()
	result := TurnResult{SessionID: sessionID, Utterance: utterance}

	// Phase 1: classify the slots still missing for this session.
	missingBefore := state.Missing()
	classStart := time.Now()
	classified := p.classifier.ClassifyAll(ctx, utterance, missingBefore)
	result.Timing.Classification = time.Since(classStart)

	detected, stillMissing := classify.Partition(classified)

	// Phase 2: extraction and composition fan out together. Extraction
	// runs as plain per-slot probes; composition goes through the pool.
	var (
		extracted []extract.Outcome
		extDone   = make(chan struct{})
	)
	if len(detected) > 0 {
		result.Timing.ConcurrentTasks++
		go func() {
			defer close(extDone)
			extStart := time.Now()
			extracted = p.extractor.ExtractWithFallback(ctx, utterance, detected)
			result.Timing.Extraction = time.Since(extStart)
		}()
	} else {
		close(extDone)
	}

	var (
		compFuture *Future[compose.Outcome]
		compStart  time.Time
	)
	if len(stillMissing) > 0 && !state.IsComplete() {
		result.Timing.ConcurrentTasks++
		req := compose.Request{
			TargetSlots: p.planner.NextGroup(stillMissing),
			Known:       state.Snapshot(),
			Context:     utterance,
		}
		compStart = time.Now()
		compFuture = Submit(p.pool, func() compose.Outcome {
			return p.gate.Generate(ctx, req)
		})
	}

	// Phase 3: fan in. Extraction results are applied before the
	// completion check; composition only lands on the result.
	<-extDone
	if len(detected) > 0 {
		state.Apply(extract.Updates(extracted))
	}
	if compFuture != nil {
		out := compFuture.Wait()
		result.Timing.Composition = time.Since(compStart)
		result.CompositionTriggered = true
		result.Composition = &out
	}

	// Phase 4: closing, once every required slot is known.
	if state.IsComplete() {
		closeStart := time.Now()
		known := state.Snapshot()
		required := state.Required()
		res := Submit(p.pool, func() closing.Result {
			return p.closer.Close(ctx, required, known)
		}).Wait()
		result.Timing.Closing = time.Since(closeStart)
		result.ClosingTriggered = true
		result.Closing = &res

		result.AppointmentID = p.storeAppointment(ctx, sessionID, known, res)
	}

	// Phase 5: aggregate.
	result.Slots = combineSlotResults(classified, extracted)
	result.Missing = state.Missing()
	result.Complete = state.IsComplete()
	result.CompletionPercent = state.CompletionPercent()
	result.Timing.WorkerCount = p.pool.Size()
	result.Timing.Total = time.Since(start)

	p.timingMu.Lock()
	p.lastTiming = result.Timing
	p.timingMu.Unlock()

	p.log.Info("turn completed",
		"session_id", sessionID,
		"detected", len(detected),
		"missing", len(result.Missing),
		"complete", result.Complete,
		"composition", result.CompositionTriggered,
		"closing", result.ClosingTriggered,
		"total_ms", result.Timing.Total.Milliseconds(),
	)

	return result, nil
}

// storeAppointment persists the booking built from a closing result.
// Conflicts and storage faults are logged, never surfaced to the caller.
func (p *TurnPipeline) storeAppointment(ctx context.Context, sessionID string, known map[dialog.Slot]string, res closing.Result) string {
	if p.appointments == nil {
		return ""
	}

	rec := p.closer.BuildRecord(sessionID, known, res)
	stored, err := p.appointments.Store(ctx, rec)
	if err != nil {
		if errors.Is(err, appointment.ErrTimeConflict) {
			p.log.Warn("appointment slot conflict",
				"session_id", sessionID,
				"day", rec.PreferredDay,
				"time", rec.PreferredTime,
				"alternatives", p.appointments.Alternatives(rec.PreferredDay, rec.PreferredTime),
			)
		} else {
			p.log.Error("appointment store failed", "session_id", sessionID, "error", err)
		}
		return ""
	}
	return stored.ID
}

// adjustPool applies the load monitor's advice between turns.
func (p *TurnPipeline) adjustPool() {
	current := p.pool.Size()
	advised := p.monitor.Recommend(current)
	if advised != current {
		p.pool.Resize(advised)
		p.log.Info("worker pool resized", "from", current, "to", advised, "active_turns", p.monitor.Active())
	}
}
