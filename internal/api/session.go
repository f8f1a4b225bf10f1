package api

import (
	"net/http"

	"github.com/edushell/portal/internal/browsing"
	"github.com/edushell/portal/internal/exercisesession"
)

// SessionCookie carries the browsing session id.
const SessionCookie = "portal_session"

// browsingSession returns the caller's browsing session, issuing a new
// cookie when the presented one is missing or no longer known.
func (h *Handler) browsingSession(w http.ResponseWriter, r *http.Request) *browsing.Session {
	current := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		current = c.Value
	}

	s := h.sessions.Open(current)
	if s.ID != current {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}

func takeNotice(s *browsing.Session) *exercisesession.Notice {
	if n, ok := s.TakeFlash(); ok {
		return &n
	}
	return nil
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
