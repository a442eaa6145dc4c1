package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"quickstay/internal/domain"
)

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFrom returns the authenticated user's claims, if the request
// passed through Auth.
func ClaimsFrom(ctx context.Context) (domain.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(domain.Claims)
	return c, ok
}

// Auth validates the Bearer token and stores the decoded claims on the
// request context. Requests without a valid token get a 401 envelope.
func Auth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				fail(w, http.StatusUnauthorized, "Not authenticated", "unauthorized")
				return
			}
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !tok.Valid {
				fail(w, http.StatusUnauthorized, "Invalid token", "unauthorized")
				return
			}
			mc, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				fail(w, http.StatusUnauthorized, "Invalid token", "unauthorized")
				return
			}
			claims := domain.Claims{
				UserID: stringClaim(mc, "sub"),
				Email:  stringClaim(mc, "email"),
				Name:   stringClaim(mc, "name"),
				Role:   stringClaim(mc, "role"),
			}
			if claims.UserID == "" {
				fail(w, http.StatusUnauthorized, "Invalid token", "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route group to users carrying the given role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFrom(r.Context())
			if !ok || c.Role != role {
				fail(w, http.StatusForbidden, "Forbidden", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}
