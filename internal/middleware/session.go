package middleware

import (
	"net/http"

	"github.com/dukerupert/neurocalm/internal/session"
)

// Sessions loads the request's session into the context and slides the expiry
// of logged-in sessions. A failing store is logged and the request proceeds
// anonymously.
func Sessions(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Load(r)
			if err != nil {
				LoggerFrom(r.Context()).Error("load session", "component", "session", "error", err)
			}
			if err := m.Touch(r.Context(), w, sess); err != nil {
				LoggerFrom(r.Context()).Error("extend session", "component", "session", "error", err)
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}
