package transport

import (
	"context"
	"net/http"

	"novacart/pkg/domain/model"
)

type userContextKey struct{}

func withUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// userFrom returns the caller resolved by requireUser, requireAdmin or adminMiddleware.
func userFrom(r *http.Request) *model.User {
	user, _ := r.Context().Value(userContextKey{}).(*model.User)
	return user
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(tokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Auth.RequireUser(r.Context(), sessionToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (s *server) requireAdmin(next http.HandlerFunc) http.Handler {
	return s.adminMiddleware(next)
}

func (s *server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Auth.RequireAdmin(r.Context(), sessionToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (s *server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
