package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/blackjack-go/internal/api/apierr"
	"github.com/mcoot/blackjack-go/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Auth creates authentication middleware
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects sessions without admin rights. It must run after Auth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r.Context())
		if session == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		if !session.IsAdmin {
			apierr.WriteError(w, apierr.NewForbiddenError("Admin privileges required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PlayerOnly rejects operator sessions, which have no profile to play with.
// It must run after Auth.
func PlayerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r.Context())
		if session == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		if session.Operator {
			apierr.WriteError(w, apierr.NewForbiddenError("Operator sessions cannot play"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractToken extracts the session token from the request
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetSession returns the session or panics
func MustGetSession(ctx context.Context) *auth.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - auth middleware not applied?")
	}
	return session
}
