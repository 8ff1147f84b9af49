package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/transmission-savoirs/api/config"
	"github.com/transmission-savoirs/api/internal/api"
	"github.com/transmission-savoirs/api/internal/types"
)

// Typed context key so claims cannot collide with other middleware values.
type contextKey string

const claimsKey contextKey = "claims"

// GetClaimsFromContext returns the claims stored by Authenticate, or nil when
// the request was not authenticated.
func GetClaimsFromContext(ctx context.Context) *types.Claims {
	claims, _ := ctx.Value(claimsKey).(*types.Claims)
	return claims
}

// NewContextWithClaims attaches verified claims to the context. Exposed so
// handler tests can simulate an authenticated request.
func NewContextWithClaims(ctx context.Context, claims *types.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Authenticate is middleware to validate JWT access tokens.
// It expects the JWT secret key to be passed in.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.Unauthorized(w, r, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.Unauthorized(w, r, "Authorization header format must be Bearer {token}")
				return
			}
			tokenString := headerParts[1]

			claims := &types.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secretKey, nil
			}, jwt.WithIssuer(jwtCfg.Issuer), jwt.WithExpirationRequired())

			if err != nil || !token.Valid {
				l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
				api.Unauthorized(w, r, "Invalid or expired token")
				return
			}

			ctx = NewContextWithClaims(ctx, claims)
			l.DebugContext(ctx, "Authentication successful", slog.Int("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates lookup-maintenance endpoints. Must run after
// Authenticate.
func RequireAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil || claims.RoleID != types.RoleAdmin {
				logger.WarnContext(r.Context(), "Admin role required",
					slog.String("middleware", "RequireAdmin"))
				api.WriteJSONResponse(w, r, http.StatusForbidden,
					map[string]string{"message": "Vous n'êtes pas autorisé à effectuer cette action."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
