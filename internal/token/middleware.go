package token

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lavka/internal/models"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// FromContext достаёт claims, положенные RequireRole.
func FromContext(r *http.Request) *Claims {
	c, _ := r.Context().Value(claimsKey).(*Claims)
	return c
}

// RequireRole: Authorization: Bearer <jwt>. Пустая role — достаточно
// валидного токена; иначе claim role должен совпасть.
func (i *Issuer) RequireRole(role string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required", nil)
				return
			}
			claims, err := i.Parse(strings.TrimPrefix(auth, p))
			if err != nil {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token", nil)
				return
			}
			if role != "" && claims.Role != role {
				models.WriteProblem(w, http.StatusForbidden, "Forbidden", "insufficient role", nil)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
