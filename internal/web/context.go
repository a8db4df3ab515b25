package web

import (
	"net/http"

	"github.com/JonMunkholm/pdftables/internal/logging"
	"github.com/JonMunkholm/pdftables/internal/session"
)

// sessionFor returns the caller's session, creating one and setting the
// cookie when the request carries no known session ID.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.State {
	var id string
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		id = c.Value
	}

	st, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.Session.CookieName,
			Value:    st.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cfg.Session.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		logging.FromContext(r.Context()).Debug("session created", "session_id", st.ID())
	}
	return st
}
