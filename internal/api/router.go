package api

import (
	"net/http"

	"github.com/edushell/portal/internal/access"
	"github.com/edushell/portal/internal/metrics"
)

func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	open := func(fn http.HandlerFunc) http.HandlerFunc { return h.require(access.CapNone, fn) }
	authed := func(fn http.HandlerFunc) http.HandlerFunc { return h.require(access.CapAuthenticated, fn) }
	teacher := func(fn http.HandlerFunc) http.HandlerFunc { return h.require(access.CapTeacher, fn) }

	// Home
	mux.HandleFunc("GET /{$}", open(h.home))

	// Exercise collection
	mux.HandleFunc("GET /exercises", open(h.listExercises))
	mux.HandleFunc("POST /exercises/reload", open(h.reloadExercises))
	mux.HandleFunc("POST /exercises/{id}/done", open(h.markDone))
	mux.HandleFunc("POST /exercises/{id}/undone", open(h.markUndone))

	// Exercise page
	mux.HandleFunc("GET /exercises/{id}", authed(h.showExercise))
	mux.HandleFunc("POST /exercises/{id}/code", authed(h.updateCode))
	mux.HandleFunc("POST /exercises/{id}/submit", authed(h.submitCode))
	mux.HandleFunc("POST /exercises/{id}/run", authed(h.runCode))
	mux.HandleFunc("POST /exercises/{id}/quiz/complete", authed(h.completeQuiz))

	// Courses
	mux.HandleFunc("GET /courses", open(h.listCourses))
	mux.HandleFunc("GET /courses/{id}", authed(h.showCourse))

	// Teacher panel
	mux.HandleFunc("GET /panel", teacher(h.showPanel))
	mux.HandleFunc("GET /panel/export", teacher(h.exportCatalog))
	mux.HandleFunc("POST /panel/import", teacher(h.importCatalog))

	// Sign-in
	mux.HandleFunc("GET /login", open(h.showLogin))
	mux.HandleFunc("POST /login", open(h.login))
	mux.HandleFunc("POST /logout", open(h.logout))

	// Operations
	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", metrics.Handler())
}
