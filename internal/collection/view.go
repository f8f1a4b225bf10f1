// Package collection holds the exercise list view of one browsing session:
// the fetched items, the active type filter and the learner's local
// completion tracker.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/domain/exercise"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusFailed
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusFailed:
		return "failed"
	case StatusReady:
		return "ready"
	}
	return "unknown"
}

const (
	MessageLoading = "Loading exercises..."
	MessageEmpty   = "No exercises available for this filter"
)

var ErrUnknownExercise = errors.New("exercise is not part of the collection")

// View fetches the collection at most once in its lifetime. Reloading means
// building a new View.
type View struct {
	fetcher catalog.Fetcher
	logger  *slog.Logger

	mu        sync.Mutex
	activated bool
	status    Status
	failure   string
	items     []exercise.Exercise
	completed map[string]bool
	filter    exercise.Filter
}

func New(fetcher catalog.Fetcher, logger *slog.Logger) *View {
	return &View{
		fetcher:   fetcher,
		logger:    logger,
		completed: make(map[string]bool),
	}
}

// Activate runs the single fetch of the view's lifetime. Later calls, and
// calls made while the fetch is pending, return immediately.
func (v *View) Activate(ctx context.Context) {
	v.mu.Lock()
	if v.activated {
		v.mu.Unlock()
		return
	}
	v.activated = true
	v.status = StatusLoading
	v.mu.Unlock()

	// The view outlives the request that first activates it.
	items, err := v.fetcher.FetchAll(context.WithoutCancel(ctx))

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.status = StatusFailed
		v.failure = err.Error()
		v.logger.Warn("exercise collection fetch failed", "error", err)
		return
	}

	if items == nil {
		items = []exercise.Exercise{}
	}
	v.items = items
	v.status = StatusReady
}

// SetFilter changes the active filter. It never refetches.
func (v *View) SetFilter(f exercise.Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

func (v *View) Filter() exercise.Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Visible returns the filtered items in fetch order.
func (v *View) Visible() []exercise.Exercise {
	v.mu.Lock()
	defer v.mu.Unlock()
	return exercise.Apply(v.items, v.filter)
}

func (v *View) Progress() exercise.Progress {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.progressLocked()
}

func (v *View) progressLocked() exercise.Progress {
	return exercise.Progress{Completed: len(v.completed), Total: len(v.items)}
}

func (v *View) containsLocked(id string) bool {
	_, ok := exercise.Find(v.items, id)
	return ok
}

// MarkCompleted records id as done. Only ids in the fetched items are accepted.
func (v *View) MarkCompleted(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.containsLocked(id) {
		return fmt.Errorf("%w: %q", ErrUnknownExercise, id)
	}
	v.completed[id] = true
	return nil
}

func (v *View) Unmark(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.containsLocked(id) {
		return fmt.Errorf("%w: %q", ErrUnknownExercise, id)
	}
	delete(v.completed, id)
	return nil
}

// CompletedIDs returns the completion set in item order.
func (v *View) CompletedIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]string, 0, len(v.completed))
	for _, ex := range v.items {
		if v.completed[ex.ID] {
			out = append(out, ex.ID)
		}
	}
	return out
}

// ── Rendering ───────────────────────────────────────────────────────────────

// Card is the summary shown for one exercise in the grid.
type Card struct {
	ID               string
	Title            string
	TypeLabel        string
	TypeSlug         string
	Difficulty       string
	EstimatedMinutes int
	Completed        bool
	Href             string
}

// State is a rendering snapshot.
type State struct {
	Status   Status
	Failure  string
	Filter   exercise.Filter
	Cards    []Card
	Progress exercise.Progress
	// Empty is set when the collection loaded but the filtered subset has
	// nothing to show.
	Empty bool
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Status:   v.status,
		Failure:  v.failure,
		Filter:   v.filter,
		Progress: v.progressLocked(),
	}
	if v.status != StatusReady {
		return s
	}

	visible := exercise.Apply(v.items, v.filter)
	s.Cards = make([]Card, 0, len(visible))
	for _, ex := range visible {
		s.Cards = append(s.Cards, Card{
			ID:               ex.ID,
			Title:            ex.Title,
			TypeLabel:        ex.Type.Label(),
			TypeSlug:         ex.Type.Slug(),
			Difficulty:       ex.Difficulty.Label(),
			EstimatedMinutes: ex.EstimatedMinutes,
			Completed:        v.completed[ex.ID],
			Href:             "/exercises/" + url.PathEscape(ex.ID),
		})
	}
	s.Empty = len(s.Cards) == 0
	return s
}
