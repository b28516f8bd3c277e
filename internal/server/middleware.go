package server

import (
	"context"
	"net/http"
	"time"

	"podcastauth/internal/auth"
)

type ctxKey string

const sessionContextKey ctxKey = "session"

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		sess, err := s.Sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read session")
			return
		}
		if sess == nil || sess.ExpiresAt.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "Session expired")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) *auth.Session {
	if val, ok := ctx.Value(sessionContextKey).(*auth.Session); ok {
		return val
	}
	return nil
}
