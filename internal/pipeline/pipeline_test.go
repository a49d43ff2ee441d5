package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"dialogue-platform/internal/appointment"
	"dialogue-platform/internal/classify"
	"dialogue-platform/internal/closing"
	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/dialog"
	"dialogue-platform/internal/extract"
)

type faultyGenerator struct{}

func (faultyGenerator) Generate(context.Context, compose.Request) (string, error) {
	return "", errors.New("generator down")
}

func (faultyGenerator) AssessQuality(context.Context, string, compose.Request) (float64, error) {
	return 0, errors.New("generator down")
}

func (faultyGenerator) Available() bool { return true }

type testHarness struct {
	pipeline *TurnPipeline
	registry *dialog.Registry
	repo     *appointment.MemoryRepo
}

func newHarness(gen compose.TextGenerator) *testHarness {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := dialog.NewRegistry()

	catalog := compose.NewCatalog(rand.New(rand.NewSource(7)))
	closeCatalog := closing.NewCatalog(rand.New(rand.NewSource(7)))

	repo := appointment.NewMemoryRepo()
	p := New(
		log,
		registry,
		classify.New(classify.NewKeywordProbe(), 0.7),
		extract.New(extract.NewPatternProbe(), nil, 0.5),
		dialog.NewGroupPlanner(dialog.DefaultAffinityTable()),
		compose.NewGate(gen, catalog.Fallback, 0.7, 2),
		closing.NewCloser(compose.NewGate(gen, closeCatalog.Fallback, 0.8, 2), closeCatalog, rand.New(rand.NewSource(7))),
		appointment.NewService(repo),
		NewWorkerPool(2),
		NewLoadMonitor(4),
	)
	return &testHarness{pipeline: p, registry: registry, repo: repo}
}

func (h *testHarness) mustCreate(t *testing.T, id string) {
	t.Helper()
	if err := h.pipeline.CreateSession(id, dialog.DefaultRequiredSlots()); err != nil {
		t.Fatalf("create session: %v", err)
	}
}

func TestRunTurnUnknownSession(t *testing.T) {
	h := newHarness(nil)

	_, err := h.pipeline.RunTurn(context.Background(), "nope", "hello")
	if !errors.Is(err, dialog.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRunTurnRejectsConcurrentTurnOnSameSession(t *testing.T) {
	h := newHarness(nil)
	h.mustCreate(t, "sess-1")

	if _, err := h.registry.BeginTurn("sess-1"); err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	defer h.registry.EndTurn("sess-1")

	_, err := h.pipeline.RunTurn(context.Background(), "sess-1", "hello")
	if !errors.Is(err, dialog.ErrTurnInProgress) {
		t.Fatalf("err = %v, want ErrTurnInProgress", err)
	}
}

func TestResetSessionRestoresMissing(t *testing.T) {
	h := newHarness(nil)
	h.mustCreate(t, "sess-1")

	if _, err := h.pipeline.RunTurn(context.Background(), "sess-1", "Hi I'm John"); err != nil {
		t.Fatalf("run turn: %v", err)
	}

	missing, err := h.pipeline.ResetSession("sess-1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(missing) != len(dialog.DefaultRequiredSlots()) {
		t.Fatalf("missing after reset = %v", missing)
	}

	state, err := h.registry.Get("sess-1")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if got := state.Get(dialog.SlotCallerName); got != "" {
		t.Fatalf("name survived reset: %q", got)
	}

	if _, err := h.pipeline.ResetSession("ghost"); !errors.Is(err, dialog.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}

	// A reset contends on the same turn gate as RunTurn.
	if _, err := h.registry.BeginTurn("sess-1"); err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	defer h.registry.EndTurn("sess-1")
	if _, err := h.pipeline.ResetSession("sess-1"); !errors.Is(err, dialog.ErrTurnInProgress) {
		t.Fatalf("err = %v, want ErrTurnInProgress", err)
	}
}

func TestTurnExtractsNameAndAsksForPhone(t *testing.T) {
	h := newHarness(nil)
	h.mustCreate(t, "sess-1")

	res, err := h.pipeline.RunTurn(context.Background(), "sess-1", "Hi I'm John")
	if err != nil {
		t.Fatalf("run turn: %v", err)
	}

	if res.Complete {
		t.Fatal("session complete after one slot")
	}
	want := []dialog.Slot{
		dialog.SlotPhoneNumber, dialog.SlotDayPreference,
		dialog.SlotTimePreference, dialog.SlotServiceType,
	}
	if len(res.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", res.Missing, want)
	}
	for i, s := range want {
		if res.Missing[i] != s {
			t.Fatalf("missing = %v, want %v", res.Missing, want)
		}
	}

	name := res.Slots[0]
	if name.Slot != dialog.SlotCallerName || !name.Detected || !name.Found || name.Value != "John" {
		t.Fatalf("name slot result = %+v", name)
	}

	// The name/phone pairing is dead once the name is known, so the
	// next question targets the phone number alone.
	if !res.CompositionTriggered || res.Composition == nil {
		t.Fatal("expected a composed follow-up question")
	}
	if !res.Composition.Valid || res.Composition.Text == "" {
		t.Fatalf("composition = %+v", res.Composition)
	}
	if res.ClosingTriggered {
		t.Fatal("closing must not run on an incomplete session")
	}
	if res.Timing.ConcurrentTasks != 2 {
		t.Fatalf("concurrent tasks = %d, want extraction + composition", res.Timing.ConcurrentTasks)
	}
}

func TestTurnWithAllSlotsKnownTriggersClosingOnly(t *testing.T) {
	h := newHarness(nil)
	h.mustCreate(t, "sess-1")

	state, err := h.registry.Get("sess-1")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	state.Apply(map[dialog.Slot]string{
		dialog.SlotCallerName:     "John",
		dialog.SlotPhoneNumber:    "555-123-4567",
		dialog.SlotDayPreference:  "Monday",
		dialog.SlotTimePreference: "2 pm",
		dialog.SlotServiceType:    "haircut",
	})

	res, err := h.pipeline.RunTurn(context.Background(), "sess-1", "yes that works")
	if err != nil {
		t.Fatalf("run turn: %v", err)
	}

	if res.CompositionTriggered {
		t.Fatal("composition must not run on a complete session")
	}
	if !res.ClosingTriggered || res.Closing == nil {
		t.Fatal("expected closing on a complete session")
	}
	if !res.Closing.Valid || res.Closing.Message == "" {
		t.Fatalf("closing = %+v", res.Closing)
	}
	if res.AppointmentID == "" {
		t.Fatal("expected a stored appointment")
	}
}

func TestGeneratorFaultsDegradeToTemplates(t *testing.T) {
	h := newHarness(faultyGenerator{})
	h.mustCreate(t, "sess-1")

	res, err := h.pipeline.RunTurn(context.Background(), "sess-1", "Hi I'm John")
	if err != nil {
		t.Fatalf("run turn: %v", err)
	}

	if !res.CompositionTriggered {
		t.Fatal("expected composition")
	}
	if !res.Composition.Valid {
		t.Fatal("fallback must produce a valid outcome")
	}
	if m := res.Composition.Method; m != compose.MethodTemplate && m != compose.MethodTemplateFallback {
		t.Fatalf("method = %q, want a template method", m)
	}
}

func TestFullConversationBooksAppointment(t *testing.T) {
	h := newHarness(nil)
	h.mustCreate(t, "sess-1")
	ctx := context.Background()

	turns := []string{
		"Hi I'm John",
		"My number is 555-123-4567",
		"Monday at 2 pm for a haircut",
	}

	var last TurnResult
	for _, u := range turns {
		res, err := h.pipeline.RunTurn(ctx, "sess-1", u)
		if err != nil {
			t.Fatalf("turn %q: %v", u, err)
		}
		last = res
	}

	if !last.Complete {
		t.Fatalf("session incomplete after full conversation: missing %v", last.Missing)
	}
	if !last.ClosingTriggered {
		t.Fatal("expected closing on the final turn")
	}
	if last.Closing.NeedsFollowup {
		t.Fatal("2 pm is a specific time, no follow-up needed")
	}

	recs, err := h.repo.List(ctx)
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("stored appointments = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.CustomerName != "John" || rec.PreferredDay != "Monday" || rec.Service != "haircut" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Status != appointment.StatusConfirmed {
		t.Fatalf("status = %q, want confirmed", rec.Status)
	}

	final, err := h.pipeline.EndSession("sess-1")
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if final[dialog.SlotCallerName] != "John" {
		t.Fatalf("final snapshot = %v", final)
	}
	if _, _, err := h.pipeline.StateSnapshot("sess-1"); !errors.Is(err, dialog.ErrSessionNotFound) {
		t.Fatalf("state after end: err = %v, want ErrSessionNotFound", err)
	}
}
