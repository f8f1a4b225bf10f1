// Package exercisesession implements the per-browsing-session exercise page
// controller: it resolves one exercise by route id, dispatches to the quiz
// or code interaction mode, and owns the code buffer and completion flag.
// Nothing here is persisted.
package exercisesession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/metrics"
)

type Status int

const (
	StatusIdle Status = iota // never mounted
	StatusLoading
	StatusNotFound
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusNotFound:
		return "not_found"
	case StatusReady:
		return "ready"
	}
	return "unknown"
}

var (
	ErrStale     = errors.New("exercise resolution superseded by a newer navigation")
	ErrNotReady  = errors.New("exercise is not ready")
	ErrWrongMode = errors.New("action not available for this exercise type")
)

// State is a copy of the controller state for rendering.
type State struct {
	Status     Status
	RouteID    string
	Exercise   exercise.Exercise // valid when Status == StatusReady
	Failure    string            // fetch failure reason, if any
	CodeBuffer string
	Completed  bool
}

// Mode is only meaningful when Status == StatusReady.
func (s State) Mode() exercise.Mode {
	return s.Exercise.Mode()
}

type Controller struct {
	resolver  catalog.Resolver
	processor Processor
	console   Console
	logger    *slog.Logger

	mu         sync.Mutex
	generation uint64
	routeID    string
	status     Status
	current    exercise.Exercise
	hasCurrent bool
	// epoch changes whenever the displayed exercise identity changes,
	// including to not-found. Same-id re-mounts keep it.
	epoch      uint64
	failure    error
	codeBuffer string
	completed  bool
}

func New(resolver catalog.Resolver, processor Processor, console Console, logger *slog.Logger) *Controller {
	return &Controller{
		resolver:  resolver,
		processor: processor,
		console:   console,
		logger:    logger,
	}
}

type ticket struct {
	generation uint64
	routeID    string
}

// Mount navigates the controller to routeID: it enters Loading, resolves
// the exercise and applies the result unless a later Mount has started in
// the meantime, in which case ErrStale is returned and state is untouched.
func (c *Controller) Mount(ctx context.Context, routeID string) error {
	t := c.begin(routeID)

	if strings.TrimSpace(routeID) == "" {
		return c.finish(t, exercise.Exercise{}, fmt.Errorf("%w: empty id", catalog.ErrNotFound))
	}

	ex, err := c.resolver.Resolve(ctx, routeID)
	return c.finish(t, ex, err)
}

func (c *Controller) begin(routeID string) ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.routeID = routeID
	c.status = StatusLoading
	c.failure = nil
	return ticket{generation: c.generation, routeID: routeID}
}

func (c *Controller) finish(t ticket, ex exercise.Exercise, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.generation != c.generation {
		c.logger.Debug("discarding stale exercise resolution",
			"route_id", t.routeID,
			"current_route_id", c.routeID)
		return ErrStale
	}

	if err != nil {
		c.status = StatusNotFound
		if !errors.Is(err, catalog.ErrNotFound) {
			c.failure = err
			c.logger.Warn("exercise fetch failed", "route_id", t.routeID, "error", err)
		}
		c.resetLocked()
		c.current = exercise.Exercise{}
		c.hasCurrent = false
		return nil
	}

	if !c.hasCurrent || c.current.ID != ex.ID {
		c.resetLocked()
	}
	c.current = ex
	c.hasCurrent = true
	c.status = StatusReady
	return nil
}

// resetLocked starts a fresh per-exercise state. Caller holds mu.
func (c *Controller) resetLocked() {
	c.codeBuffer = ""
	c.completed = false
	c.epoch++
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Status:     c.status,
		RouteID:    c.routeID,
		CodeBuffer: c.codeBuffer,
		Completed:  c.completed,
	}
	if c.status == StatusReady {
		s.Exercise = c.current
	}
	if c.failure != nil {
		s.Failure = c.failure.Error()
	}
	return s
}

// requireLocked checks the controller is Ready in mode m. Caller holds mu.
func (c *Controller) requireLocked(m exercise.Mode) error {
	if c.status != StatusReady {
		return ErrNotReady
	}
	if c.current.Mode() != m {
		return ErrWrongMode
	}
	return nil
}

// CompleteQuiz is the quiz handler's completion callback.
func (c *Controller) CompleteQuiz() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(exercise.ModeQuiz); err != nil {
		return err
	}
	c.completed = true
	return nil
}

// UpdateCode replaces the code buffer. No validation.
func (c *Controller) UpdateCode(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLocked(exercise.ModeCode); err != nil {
		return err
	}
	c.codeBuffer = text
	return nil
}

// Submit completes the exercise for any non-blank buffer after the
// processing delay. A blank buffer yields a warning and changes nothing.
// If another exercise (or not-found) was displayed during the delay, the
// submission is dropped with ErrStale; re-mounting the same exercise is not
// a navigation away.
func (c *Controller) Submit(ctx context.Context) (Notice, error) {
	c.mu.Lock()
	if err := c.requireLocked(exercise.ModeCode); err != nil {
		c.mu.Unlock()
		return Notice{}, err
	}
	code := c.codeBuffer
	epoch := c.epoch
	exerciseID := c.current.ID
	c.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		metrics.ObserveSubmission("blank")
		return Notice{Level: LevelWarning, Text: TextEmptySubmission}, nil
	}

	if err := c.processor.Process(ctx, exerciseID, code); err != nil {
		metrics.ObserveSubmission("failed")
		c.logger.Error("code submission failed", "exercise_id", exerciseID, "error", err)
		return Notice{Level: LevelError, Text: TextSubmitFailed}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		metrics.ObserveSubmission("stale")
		return Notice{}, ErrStale
	}
	c.completed = true
	metrics.ObserveSubmission("completed")
	return Notice{Level: LevelSuccess, Text: TextSubmitted}, nil
}

// Run writes the buffer to the developer console. It never panics, never
// returns an error and never changes the completion flag.
func (c *Controller) Run() (n Notice) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("run failed", "panic", r)
			n = Notice{Level: LevelError, Text: TextRunFailed}
		}
	}()

	c.mu.Lock()
	err := c.requireLocked(exercise.ModeCode)
	code := c.codeBuffer
	exerciseID := c.current.ID
	c.mu.Unlock()

	if err != nil {
		return Notice{Level: LevelError, Text: TextRunFailed}
	}
	if err := c.console.Log(exerciseID, code); err != nil {
		c.logger.Error("run failed", "exercise_id", exerciseID, "error", err)
		return Notice{Level: LevelError, Text: TextRunFailed}
	}
	return Notice{Level: LevelInfo, Text: TextRunLogged}
}
