package auth

import (
	"net/http"
	"strings"

	"github.com/classloop/classloop/pkg/httpjson"
)

// SessionCookie carries the session token between requests.
const SessionCookie = "classloop_session"

// RequireUser authenticates the request from the session cookie or a bearer
// token and puts the user on the context. Unauthenticated requests get 401.
func RequireUser(sessions *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			user, err := sessions.ParseSession(token)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "invalid_session", "session is invalid or expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireTeacher allows only teachers and admins through. Must run after
// RequireUser.
func RequireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if !user.IsTeacher() {
			httpjson.Error(w, http.StatusForbidden, "forbidden", "teacher role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimPrefix(bearer, "Bearer ")
	}
	return ""
}
