package exercisesession_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/exercisesession"
	"github.com/edushell/portal/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustExercise(t *testing.T, id string, typ exercise.Type) exercise.Exercise {
	t.Helper()
	ex, err := exercise.New(id, "Title "+id, "Statement "+id, typ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ex
}

// ── Fakes ───────────────────────────────────────────────────────────────────

type mapResolver map[string]exercise.Exercise

func (m mapResolver) Resolve(ctx context.Context, id string) (exercise.Exercise, error) {
	ex, ok := m[id]
	if !ok {
		return exercise.Exercise{}, catalog.ErrNotFound
	}
	return ex, nil
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(ctx context.Context, id string) (exercise.Exercise, error) {
	return exercise.Exercise{}, f.err
}

// gatedResolver blocks each Resolve until its id's gate is released.
type gatedResolver struct {
	items   mapResolver
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedResolver(items mapResolver) *gatedResolver {
	return &gatedResolver{
		items:   items,
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 8),
	}
}

func (g *gatedResolver) gate(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan struct{})
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedResolver) Resolve(ctx context.Context, id string) (exercise.Exercise, error) {
	ch := g.gate(id)
	g.started <- id
	<-ch
	return g.items.Resolve(ctx, id)
}

type instantProcessor struct {
	calls int
	err   error
}

func (p *instantProcessor) Process(ctx context.Context, exerciseID, code string) error {
	p.calls++
	return p.err
}

type recordingConsole struct {
	logged []string
	panics bool
}

func (c *recordingConsole) Log(exerciseID, code string) error {
	if c.panics {
		panic("boom")
	}
	c.logged = append(c.logged, code)
	return nil
}

func newController(t *testing.T, r catalog.Resolver) (*exercisesession.Controller, *instantProcessor, *recordingConsole) {
	t.Helper()
	p := &instantProcessor{}
	c := &recordingConsole{}
	return exercisesession.New(r, p, c, discardLogger()), p, c
}

// ── Mount ───────────────────────────────────────────────────────────────────

func TestMount_Ready(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{"e1": mustExercise(t, "e1", exercise.TypeCode)})

	if err := ctrl.Mount(context.Background(), "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := ctrl.State()
	if st.Status != exercisesession.StatusReady {
		t.Fatalf("expected ready, got %v", st.Status)
	}
	if st.Exercise.ID != "e1" || st.Mode() != exercise.ModeCode {
		t.Errorf("expected code exercise e1, got %+v", st.Exercise)
	}
}

func TestMount_NotFound(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{})

	if err := ctrl.Mount(context.Background(), "missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := ctrl.State()
	if st.Status != exercisesession.StatusNotFound {
		t.Errorf("expected not found, got %v", st.Status)
	}
	if st.Failure != "" {
		t.Errorf("expected no failure reason for a plain miss, got %q", st.Failure)
	}
}

func TestMount_EmptyIDIsNotFound(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{"": mustExercise(t, "x", exercise.TypeCode)})

	if err := ctrl.Mount(context.Background(), "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := ctrl.State(); st.Status != exercisesession.StatusNotFound {
		t.Errorf("expected not found, got %v", st.Status)
	}
}

func TestMount_FetchFailureAttachesReason(t *testing.T) {
	fetchErr := &catalog.FetchError{Source: "http", Err: errors.New("upstream returned 502")}
	ctrl, _, _ := newController(t, failingResolver{err: fetchErr})

	if err := ctrl.Mount(context.Background(), "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := ctrl.State()
	if st.Status != exercisesession.StatusNotFound {
		t.Errorf("expected not found, got %v", st.Status)
	}
	if st.Failure != "upstream returned 502" {
		t.Errorf("expected failure reason, got %q", st.Failure)
	}
}

func TestMount_LatestNavigationWins(t *testing.T) {
	items := mapResolver{
		"a": mustExercise(t, "a", exercise.TypeCode),
		"b": mustExercise(t, "b", exercise.TypeMultipleChoice),
	}
	r := newGatedResolver(items)
	ctrl, _, _ := newController(t, r)

	errA := make(chan error, 1)
	go func() { errA <- ctrl.Mount(context.Background(), "a") }()
	<-r.started

	errB := make(chan error, 1)
	go func() { errB <- ctrl.Mount(context.Background(), "b") }()
	<-r.started

	close(r.gate("b"))
	if err := <-errB; err != nil {
		t.Fatalf("unexpected error for b: %v", err)
	}
	close(r.gate("a"))
	if err := <-errA; !errors.Is(err, exercisesession.ErrStale) {
		t.Errorf("expected ErrStale for a, got %v", err)
	}

	st := ctrl.State()
	if st.Status != exercisesession.StatusReady || st.Exercise.ID != "b" {
		t.Errorf("expected b to be displayed, got %v %q", st.Status, st.Exercise.ID)
	}
}

func TestMount_LoadingWhileResolving(t *testing.T) {
	r := newGatedResolver(mapResolver{"a": mustExercise(t, "a", exercise.TypeCode)})
	ctrl, _, _ := newController(t, r)

	done := make(chan error, 1)
	go func() { done <- ctrl.Mount(context.Background(), "a") }()
	<-r.started

	if st := ctrl.State(); st.Status != exercisesession.StatusLoading {
		t.Errorf("expected loading, got %v", st.Status)
	}

	close(r.gate("a"))
	<-done
}

// ── Per-exercise state ──────────────────────────────────────────────────────

func TestStateResetsOnDifferentExercise(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{
		"a": mustExercise(t, "a", exercise.TypeCode),
		"b": mustExercise(t, "b", exercise.TypeCode),
	})
	ctx := context.Background()

	_ = ctrl.Mount(ctx, "a")
	_ = ctrl.UpdateCode("console.log(1)")
	if _, err := ctrl.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = ctrl.Mount(ctx, "b")
	st := ctrl.State()
	if st.CodeBuffer != "" || st.Completed {
		t.Errorf("expected fresh state for b, got buffer=%q completed=%v", st.CodeBuffer, st.Completed)
	}
}

func TestStateKeptOnSameExercise(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{"a": mustExercise(t, "a", exercise.TypeCode)})
	ctx := context.Background()

	_ = ctrl.Mount(ctx, "a")
	_ = ctrl.UpdateCode("x := 1")
	_ = ctrl.Mount(ctx, "a")

	if st := ctrl.State(); st.CodeBuffer != "x := 1" {
		t.Errorf("expected buffer kept across re-mount, got %q", st.CodeBuffer)
	}
}

func TestStateResetsAfterNotFound(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{"e1": mustExercise(t, "e1", exercise.TypeCode)})
	ctx := context.Background()

	_ = ctrl.Mount(ctx, "e1")
	_ = ctrl.UpdateCode("print(1)")
	if _, err := ctrl.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = ctrl.Mount(ctx, "missing")
	if st := ctrl.State(); st.CodeBuffer != "" || st.Completed {
		t.Errorf("expected cleared state on not found, got buffer=%q completed=%v", st.CodeBuffer, st.Completed)
	}

	_ = ctrl.Mount(ctx, "e1")
	st := ctrl.State()
	if st.Status != exercisesession.StatusReady {
		t.Fatalf("expected ready, got %v", st.Status)
	}
	if st.CodeBuffer != "" || st.Completed {
		t.Errorf("expected fresh state back on e1, got buffer=%q completed=%v", st.CodeBuffer, st.Completed)
	}
}

// ── Quiz mode ───────────────────────────────────────────────────────────────

func TestCompleteQuiz(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{"q": mustExercise(t, "q", exercise.TypeTextAnswer)})
	_ = ctrl.Mount(context.Background(), "q")

	if err := ctrl.CompleteQuiz(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctrl.State().Completed {
		t.Error("expected completed after quiz completion")
	}

	if err := ctrl.UpdateCode("x"); !errors.Is(err, exercisesession.ErrWrongMode) {
		t.Errorf("expected ErrWrongMode for code action on quiz, got %v", err)
	}
}

func TestActionsRequireReady(t *testing.T) {
	ctrl, _, _ := newController(t, mapResolver{})

	if err := ctrl.CompleteQuiz(); !errors.Is(err, exercisesession.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
	if _, err := ctrl.Submit(context.Background()); !errors.Is(err, exercisesession.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

// ── Code mode ───────────────────────────────────────────────────────────────

func TestSubmit_BlankBufferWarns(t *testing.T) {
	ctrl, p, _ := newController(t, mapResolver{"c": mustExercise(t, "c", exercise.TypeCode)})
	ctx := context.Background()
	_ = ctrl.Mount(ctx, "c")

	for _, buf := range []string{"", "   ", "\n\t "} {
		_ = ctrl.UpdateCode(buf)
		n, err := ctrl.Submit(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Level != exercisesession.LevelWarning || n.Text != exercisesession.TextEmptySubmission {
			t.Errorf("expected empty-submission warning, got %+v", n)
		}
	}

	if ctrl.State().Completed {
		t.Error("expected blank submissions to leave completion unchanged")
	}
	if p.calls != 0 {
		t.Errorf("expected no processing for blank buffers, got %d calls", p.calls)
	}
}

func TestSubmit_NonBlankCompletes(t *testing.T) {
	ctrl, p, _ := newController(t, mapResolver{"c": mustExercise(t, "c", exercise.TypeCode)})
	ctx := context.Background()
	_ = ctrl.Mount(ctx, "c")
	_ = ctrl.UpdateCode("x")

	n, err := ctrl.Submit(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Level != exercisesession.LevelSuccess || n.Text != exercisesession.TextSubmitted {
		t.Errorf("expected success notice, got %+v", n)
	}
	if !ctrl.State().Completed {
		t.Error("expected completed")
	}
	if p.calls != 1 {
		t.Errorf("expected one processing call, got %d", p.calls)
	}
}

func TestSubmit_ProcessorFailure(t *testing.T) {
	ctrl, p, _ := newController(t, mapResolver{"c": mustExercise(t, "c", exercise.TypeCode)})
	p.err = errors.New("queue full")
	ctx := context.Background()
	_ = ctrl.Mount(ctx, "c")
	_ = ctrl.UpdateCode("x")

	n, err := ctrl.Submit(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if n.Level != exercisesession.LevelError {
		t.Errorf("expected error notice, got %+v", n)
	}
	if ctrl.State().Completed {
		t.Error("expected completion unchanged on failure")
	}
}

// navigatingProcessor re-mounts the controller while "processing".
type navigatingProcessor struct {
	ctrl *exercisesession.Controller
	to   string
}

func (p *navigatingProcessor) Process(ctx context.Context, exerciseID, code string) error {
	return p.ctrl.Mount(ctx, p.to)
}

func TestSubmit_DroppedAfterNavigation(t *testing.T) {
	items := mapResolver{
		"a": mustExercise(t, "a", exercise.TypeCode),
		"b": mustExercise(t, "b", exercise.TypeCode),
	}
	p := &navigatingProcessor{to: "b"}
	ctrl := exercisesession.New(items, p, &recordingConsole{}, discardLogger())
	p.ctrl = ctrl
	ctx := context.Background()

	_ = ctrl.Mount(ctx, "a")
	_ = ctrl.UpdateCode("x")

	if _, err := ctrl.Submit(ctx); !errors.Is(err, exercisesession.ErrStale) {
		t.Errorf("expected ErrStale, got %v", err)
	}
	st := ctrl.State()
	if st.Exercise.ID != "b" || st.Completed {
		t.Errorf("expected b uncompleted, got %q completed=%v", st.Exercise.ID, st.Completed)
	}
}

func TestSubmit_SurvivesSameExerciseRemount(t *testing.T) {
	items := mapResolver{"a": mustExercise(t, "a", exercise.TypeCode)}
	p := &navigatingProcessor{to: "a"}
	ctrl := exercisesession.New(items, p, &recordingConsole{}, discardLogger())
	p.ctrl = ctrl
	ctx := context.Background()

	_ = ctrl.Mount(ctx, "a")
	_ = ctrl.UpdateCode("x")

	n, err := ctrl.Submit(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Level != exercisesession.LevelSuccess {
		t.Errorf("expected success notice, got %+v", n)
	}
	if !ctrl.State().Completed {
		t.Error("expected completed after re-mounting the same exercise during processing")
	}
}

func TestRun_LogsAndNeverCompletes(t *testing.T) {
	ctrl, _, console := newController(t, mapResolver{"c": mustExercise(t, "c", exercise.TypeCode)})
	_ = ctrl.Mount(context.Background(), "c")
	_ = ctrl.UpdateCode("print()")

	n := ctrl.Run()
	if n.Level != exercisesession.LevelInfo || n.Text != exercisesession.TextRunLogged {
		t.Errorf("expected run notice, got %+v", n)
	}
	if len(console.logged) != 1 || console.logged[0] != "print()" {
		t.Errorf("expected buffer logged once, got %v", console.logged)
	}
	if ctrl.State().Completed {
		t.Error("run must not complete the exercise")
	}
}

func TestRun_RecoversFromPanic(t *testing.T) {
	console := &recordingConsole{panics: true}
	ctrl := exercisesession.New(mapResolver{"c": mustExercise(t, "c", exercise.TypeCode)},
		&instantProcessor{}, console, discardLogger())
	_ = ctrl.Mount(context.Background(), "c")

	n := ctrl.Run()
	if n.Level != exercisesession.LevelError || n.Text != exercisesession.TextRunFailed {
		t.Errorf("expected error notice, got %+v", n)
	}
}

// ── SimulatedProcessor ──────────────────────────────────────────────────────

func TestSimulatedProcessor_WaitsForDelay(t *testing.T) {
	pool := worker.NewPool[error](1, 1)
	defer pool.Close()
	p := exercisesession.NewSimulatedProcessor(20*time.Millisecond, pool)

	started := time.Now()
	if err := p.Process(context.Background(), "c", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(started); elapsed < 20*time.Millisecond {
		t.Errorf("expected at least 20ms, got %v", elapsed)
	}
}

func TestSimulatedProcessor_Cancelled(t *testing.T) {
	pool := worker.NewPool[error](1, 1)
	defer pool.Close()
	p := exercisesession.NewSimulatedProcessor(time.Second, pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := p.Process(ctx, "c", "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
