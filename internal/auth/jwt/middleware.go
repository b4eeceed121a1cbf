package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/httputil"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

// Validator validates bearer tokens
type Validator interface {
	ValidateAccessToken(token string) (*Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the claims in the context
func Authenticate(v Validator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := v.ValidateAccessToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				httputil.Error(w, err)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = httputil.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims stores claims in the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by Authenticate
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}
