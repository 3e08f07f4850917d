package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/neurocalm/internal/auth"
	"github.com/dukerupert/neurocalm/internal/session"
)

// RequireUser guards page routes: anonymous requests are redirected to /login.
// The logged-in user is exposed through auth.PrincipalFrom.
func RequireUser(next http.Handler) http.Handler {
	return requireUser(next, redirectToLogin)
}

// RequireUserAPI guards data routes: anonymous requests get 401 JSON.
func RequireUserAPI(next http.Handler) http.Handler {
	return requireUser(next, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "not logged in"})
	})
}

func requireUser(next http.Handler, deny http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.LoggedIn() {
			deny(w, r)
			return
		}

		ctx := auth.WithPrincipal(r.Context(), auth.Principal{
			UserID:    sess.Data.UserID,
			Email:     sess.Data.Email,
			FirstName: sess.Data.FirstName,
			Session:   sess.Token,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
