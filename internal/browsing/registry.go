// Package browsing keeps the in-memory state of each visitor's browsing
// session: one exercise collection view and one exercise page controller.
// Nothing is persisted; idle sessions are evicted.
package browsing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edushell/portal/internal/collection"
	"github.com/edushell/portal/internal/exercisesession"
	"github.com/edushell/portal/internal/id"
	"github.com/edushell/portal/internal/metrics"
)

var ErrUnknownSession = errors.New("unknown browsing session")

type Session struct {
	ID string

	controller *exercisesession.Controller
	lastSeen   atomic.Int64

	mu    sync.Mutex
	view  *collection.View
	flash *exercisesession.Notice
}

// View returns the current collection view. It changes after a reload.
func (s *Session) View() *collection.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) Controller() *exercisesession.Controller {
	return s.controller
}

// Flash stores a notice for the next page render, replacing any pending one.
func (s *Session) Flash(n exercisesession.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = &n
}

// TakeFlash returns and clears the pending notice.
func (s *Session) TakeFlash() (exercisesession.Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flash == nil {
		return exercisesession.Notice{}, false
	}
	n := *s.flash
	s.flash = nil
	return n, true
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Factory builds the per-session components.
type Factory struct {
	NewView       func() *collection.View
	NewController func() *exercisesession.Controller
}

type Registry struct {
	factory Factory
	idle    time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(factory Factory, idle time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		idle:     idle,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for sessionID, creating a fresh one when the id
// is unknown or malformed. The returned session's ID is what the caller
// must hand back to the client.
func (r *Registry) Open(sessionID string) *Session {
	now := r.now()

	if id.Valid(sessionID) {
		r.mu.RLock()
		s, ok := r.sessions[sessionID]
		r.mu.RUnlock()
		if ok {
			s.touch(now)
			return s
		}
	}

	s := &Session{
		ID:         id.GenerateID(),
		controller: r.factory.NewController(),
		view:       r.factory.NewView(),
	}
	s.touch(now)

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	r.logger.Debug("browsing session created", "session_id", s.ID)
	return s
}

// Get returns an existing session without creating one.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Reset replaces the session's collection view: the next visit fetches
// again and the list's completion marks start empty.
func (r *Registry) Reset(sessionID string) error {
	s, ok := r.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}

	s.mu.Lock()
	s.view = r.factory.NewView()
	s.mu.Unlock()
	return nil
}

func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict drops sessions idle longer than the configured timeout.
func (r *Registry) Evict() int {
	now := r.now()

	r.mu.Lock()
	evicted := 0
	for key, s := range r.sessions {
		if s.idleSince(now) > r.idle {
			delete(r.sessions, key)
			evicted++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	if evicted > 0 {
		r.logger.Info("evicted idle browsing sessions", "count", evicted, "remaining", n)
	}
	return evicted
}

// Run evicts idle sessions periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}
