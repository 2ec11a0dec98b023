package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/letsgo-ai/concierge/internal/domain"
)

// SessionCookieName carries the browser session token.
const SessionCookieName = "letsgo_session"

// StateCookieName carries the OAuth anti-forgery nonce between the
// sign-in redirect and the provider callback.
const StateCookieName = "letsgo_oauth_state"

type contextKey int

const (
	userKey contextKey = iota
	sessionKey
)

// UserFromContext extracts the signed-in user, or nil when anonymous.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}

// SessionFromContext extracts the current session, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	if s, ok := ctx.Value(sessionKey).(*domain.Session); ok {
		return s
	}
	return nil
}

// Middleware resolves the session cookie to a user and injects both into
// the request context. Anonymous requests pass through untouched. Any
// navigation that is not the confirming account-delete request disarms a
// pending deletion.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, session, err := s.CurrentUser(r.Context(), cookie.Value)
			if errors.Is(err, ErrNoSession) {
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				http.Error(w, `{"error":"failed to resolve session"}`, http.StatusInternalServerError)
				return
			}

			if r.Method != http.MethodDelete {
				s.DisarmDeletion(r.Context(), session)
				session.DeleteArmedAt = time.Time{}
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, session *domain.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
