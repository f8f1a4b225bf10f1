package api

import (
	"net/http"
	"strings"

	"github.com/edushell/portal/internal/exercisesession"
	"github.com/edushell/portal/internal/identity"
)

type loginPage struct {
	Next string
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// GET /login
func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", view{
		Title: "Sign in",
		Data:  loginPage{Next: safeNext(r.URL.Query().Get("next"))},
	})
}

// POST /login stores a provider-issued token as the session cookie.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	token := strings.TrimSpace(r.PostForm.Get("token"))

	if _, err := h.verifier.Verify(token); err != nil {
		h.render(w, r, http.StatusUnauthorized, "login", view{
			Title:  "Sign in",
			Notice: &exercisesession.Notice{Level: exercisesession.LevelError, Text: "The token was rejected."},
			Data:   loginPage{Next: next},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     identity.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// POST /logout drops the token and all browsing state.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Forget(c.Value)
	}
	clearCookie(w, identity.CookieName)
	clearCookie(w, SessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
