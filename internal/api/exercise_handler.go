package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/edushell/portal/internal/collection"
	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/exercisesession"
)

const (
	maxFormBytes     = 1 << 20
	editorHeight     = "400px"
	exerciseLoading  = "Loading exercise..."
	exerciseNotFound = "Exercise Not Found"
)

// ── Page models ─────────────────────────────────────────────────────────────

type filterLink struct {
	Slug   string
	Label  string
	Active bool
}

type exercisesPage struct {
	State          collection.State
	Filters        []filterLink
	Loading        bool
	Failed         bool
	LoadingMessage string
	EmptyMessage   string
}

type exercisePage struct {
	State          exercisesession.State
	Path           string // escaped /exercises/{id}, prefix for action URLs
	Loading        bool
	NotFound       bool
	Quiz           bool
	Code           bool
	Language       string
	EditorHeight   string
	LoadingMessage string
	NotFoundTitle  string
}

func exercisePath(id string) string {
	return "/exercises/" + url.PathEscape(id)
}

func coursePath(id string) string {
	return "/courses/" + url.PathEscape(id)
}

func filterLinks(active exercise.Filter) []filterLink {
	all := exercise.Filters()
	out := make([]filterLink, len(all))
	for i, f := range all {
		out[i] = filterLink{Slug: f.Slug(), Label: f.Label(), Active: f == active}
	}
	return out
}

// ── Home ────────────────────────────────────────────────────────────────────

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	s := h.browsingSession(w, r)
	h.render(w, r, http.StatusOK, "home", view{
		Title:  "Home",
		Notice: takeNotice(s),
	})
}

// ── Collection ──────────────────────────────────────────────────────────────

// GET /exercises
func (h *Handler) listExercises(w http.ResponseWriter, r *http.Request) {
	s := h.browsingSession(w, r)
	v := s.View()

	if raw := r.URL.Query().Get("filter"); raw != "" {
		f, err := exercise.ParseFilter(raw)
		if err != nil {
			h.renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		v.SetFilter(f)
	}

	v.Activate(r.Context())
	st := v.State()

	h.render(w, r, http.StatusOK, "exercises", view{
		Title:  "Exercises",
		Notice: takeNotice(s),
		Data: exercisesPage{
			State:          st,
			Filters:        filterLinks(st.Filter),
			Loading:        st.Status == collection.StatusLoading || st.Status == collection.StatusIdle,
			Failed:         st.Status == collection.StatusFailed,
			LoadingMessage: collection.MessageLoading,
			EmptyMessage:   collection.MessageEmpty,
		},
	})
}

// POST /exercises/reload
func (h *Handler) reloadExercises(w http.ResponseWriter, r *http.Request) {
	s := h.browsingSession(w, r)
	if err := h.sessions.Reset(s.ID); err != nil {
		h.logger.Warn("reload exercises", "error", err, "request_id", RequestIDFrom(r.Context()))
	}
	http.Redirect(w, r, "/exercises", http.StatusSeeOther)
}

// POST /exercises/{id}/done
func (h *Handler) markDone(w http.ResponseWriter, r *http.Request) {
	h.toggleDone(w, r, true)
}

// POST /exercises/{id}/undone
func (h *Handler) markUndone(w http.ResponseWriter, r *http.Request) {
	h.toggleDone(w, r, false)
}

func (h *Handler) toggleDone(w http.ResponseWriter, r *http.Request, done bool) {
	id := r.PathValue("id")
	s := h.browsingSession(w, r)
	v := s.View()
	v.Activate(r.Context())

	var err error
	if done {
		err = v.MarkCompleted(id)
	} else {
		err = v.Unmark(id)
	}
	if errors.Is(err, collection.ErrUnknownExercise) {
		h.renderError(w, r, http.StatusNotFound, "exercise not found")
		return
	}

	http.Redirect(w, r, "/exercises?filter="+v.Filter().Slug(), http.StatusSeeOther)
}

// ── Exercise page ───────────────────────────────────────────────────────────

// GET /exercises/{id}
func (h *Handler) showExercise(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s := h.browsingSession(w, r)
	ctrl := s.Controller()

	err := ctrl.Mount(r.Context(), id)
	st := ctrl.State()

	page := exercisePage{
		State:          st,
		EditorHeight:   editorHeight,
		LoadingMessage: exerciseLoading,
		NotFoundTitle:  exerciseNotFound,
	}
	status := http.StatusOK
	title := exerciseNotFound

	switch {
	case errors.Is(err, exercisesession.ErrStale) || st.RouteID != id || st.Status == exercisesession.StatusLoading:
		// A newer navigation in this browsing session owns the controller.
		page.Loading = true
		title = "Exercise"
	case st.Status == exercisesession.StatusNotFound:
		page.NotFound = true
		status = http.StatusNotFound
	case st.Status == exercisesession.StatusReady:
		title = st.Exercise.Title
		page.Path = exercisePath(st.Exercise.ID)
		page.Language = st.Exercise.EditorLanguage()
		switch st.Mode() {
		case exercise.ModeQuiz:
			page.Quiz = true
		case exercise.ModeCode:
			page.Code = true
		}
	}

	h.render(w, r, status, "exercise", view{
		Title:  title,
		Notice: takeNotice(s),
		Data:   page,
	})
}

// ready makes sure the controller shows id, mounting it when another
// exercise (or nothing) is displayed.
func (h *Handler) ready(r *http.Request, ctrl *exercisesession.Controller, id string) bool {
	st := ctrl.State()
	if st.Status == exercisesession.StatusReady && st.RouteID == id {
		return true
	}
	if err := ctrl.Mount(r.Context(), id); err != nil {
		return false
	}
	st = ctrl.State()
	return st.Status == exercisesession.StatusReady && st.RouteID == id
}

// parseCodeForm applies a posted "code" field, if any, to the buffer.
func (h *Handler) parseCodeForm(w http.ResponseWriter, r *http.Request, ctrl *exercisesession.Controller) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid form")
		return false
	}
	if !r.PostForm.Has("code") {
		return true
	}
	if err := ctrl.UpdateCode(r.PostForm.Get("code")); err != nil {
		h.actionError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) actionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, exercisesession.ErrWrongMode):
		h.renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, exercisesession.ErrNotReady):
		http.Redirect(w, r, exercisePath(r.PathValue("id")), http.StatusSeeOther)
	default:
		h.logger.Error("exercise action failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		h.renderError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// POST /exercises/{id}/code
func (h *Handler) updateCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctrl := h.browsingSession(w, r).Controller()
	if !h.ready(r, ctrl, id) {
		http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
		return
	}
	if !h.parseCodeForm(w, r, ctrl) {
		return
	}
	http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
}

// POST /exercises/{id}/submit
func (h *Handler) submitCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s := h.browsingSession(w, r)
	ctrl := s.Controller()
	if !h.ready(r, ctrl, id) {
		http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
		return
	}
	if !h.parseCodeForm(w, r, ctrl) {
		return
	}

	n, err := ctrl.Submit(r.Context())
	switch {
	case errors.Is(err, exercisesession.ErrStale):
		// The learner moved on; the result has nowhere to go.
	case errors.Is(err, exercisesession.ErrWrongMode), errors.Is(err, exercisesession.ErrNotReady):
		h.actionError(w, r, err)
		return
	}
	if n.Text != "" {
		s.Flash(n)
	}
	http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
}

// POST /exercises/{id}/run
func (h *Handler) runCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s := h.browsingSession(w, r)
	ctrl := s.Controller()
	if !h.ready(r, ctrl, id) {
		http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
		return
	}
	if !h.parseCodeForm(w, r, ctrl) {
		return
	}

	s.Flash(ctrl.Run())
	http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
}

// POST /exercises/{id}/quiz/complete
func (h *Handler) completeQuiz(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctrl := h.browsingSession(w, r).Controller()
	if !h.ready(r, ctrl, id) {
		http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
		return
	}
	if err := ctrl.CompleteQuiz(); err != nil {
		h.actionError(w, r, err)
		return
	}
	http.Redirect(w, r, exercisePath(id), http.StatusSeeOther)
}
