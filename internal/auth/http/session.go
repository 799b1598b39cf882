package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/internal/auth/session"
	"github.com/aussiebroadwan/sessionauth/pkg/httpx"
)

// SessionMiddleware gives every request a fresh anonymous Session and, when
// the request carries a bearer token that resolves to an active user, binds
// that user's identity into it. Unknown, expired and revoked tokens leave
// the session anonymous; only store failures abort the request.
func SessionMiddleware(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.NewContext(r.Context(), session.New())
			r = r.WithContext(ctx)

			token, ok := httpx.BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, found, err := auth.ResolveUserForToken(ctx, token)
			if err != nil {
				writeServiceError(w, r, "token resolution failed", err)
				return
			}
			if found {
				// The owner can be deactivated between resolve and bind;
				// the session then stays anonymous.
				if _, err := auth.CompleteLogin(ctx, user.Username); err != nil &&
					!errors.Is(err, service.ErrUserNotFound) {
					writeServiceError(w, r, "session bind failed", err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
