package middleware

import (
	"net/http"

	"bilimbagdar/internal/models"
)

// RBACMiddleware handles role-based access control. Roles are carried in
// the JWT claims, so no repository lookup is needed per request.
type RBACMiddleware struct{}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware() *RBACMiddleware {
	return &RBACMiddleware{}
}

// RequireRole checks if the authenticated user has the required role
func (m *RBACMiddleware) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := GetRole(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			if got != role {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
