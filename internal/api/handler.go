package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/edushell/portal/internal/access"
	"github.com/edushell/portal/internal/browsing"
	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/identity"
	"github.com/edushell/portal/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	store    store.Store
	fetcher  catalog.Fetcher
	sessions *browsing.Registry
	verifier *identity.Verifier
	gate     access.Gate
	pages    *pages
	source   string
	logger   *slog.Logger
}

// Deps groups what NewHandler needs. Source names the active catalog
// backend and is shown on the teacher panel.
type Deps struct {
	Store    store.Store
	Fetcher  catalog.Fetcher
	Sessions *browsing.Registry
	Verifier *identity.Verifier
	Source   string
	Logger   *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(d Deps) (*Handler, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:    d.Store,
		fetcher:  d.Fetcher,
		sessions: d.Sessions,
		verifier: d.Verifier,
		gate:     access.NewGate(),
		pages:    p,
		source:   d.Source,
		logger:   d.Logger,
	}, nil
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleStoreError checks for common store errors and writes the appropriate
// page. Returns true if an error was handled (caller should return).
func (h *Handler) handleStoreError(w http.ResponseWriter, r *http.Request, err error, entity string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, entity+" not found")
		return true
	}
	h.logger.Error("store error", "error", err, "entity", entity)
	h.renderError(w, r, http.StatusInternalServerError, "internal error")
	return true
}

// health reports store reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
