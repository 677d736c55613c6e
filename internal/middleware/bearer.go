package middleware

import (
	"context"
	"net/http"

	"github.com/videohub/backend/internal/apperrors"
	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
)

// TokenVerifier resolves a bearer token to its current user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (models.User, error)
}

// RequireBearer rejects requests that carry no bearer token. The token is
// not verified.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.BearerToken(r.Header.Get("Authorization")) == "" {
			writeError(w, http.StatusUnauthorized, "token not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin verifies the bearer token, requires the admin role and stores
// the user on the request context.
func RequireAdmin(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user, err := verifier.VerifyToken(ctx, auth.BearerToken(r.Header.Get("Authorization")))
			if err == nil && user.Role != models.RoleAdmin {
				logging.FromContext(ctx).Warn("admin role required", "userId", user.ID, "role", user.Role)
				err = apperrors.Forbidden("admin access required")
			}
			if err != nil {
				if apperrors.Is(err, apperrors.KindInternal) {
					logging.FromContext(ctx).Error("token verification failed", "error", err)
				}
				writeError(w, apperrors.KindOf(err).HTTPStatus(), apperrors.Message(err, "internal server error"))
				return
			}

			ctx = logging.With(auth.WithUser(ctx, user), "userId", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
