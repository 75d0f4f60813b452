// Package rbac provides role-based access control middleware.
package rbac

import (
	"net/http"

	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/middleware"
	"github.com/farmchain/farmchain/pkg/response"
)

// HasRole returns middleware that allows access only to callers holding one
// of roles. Requires middleware.Authenticate to have already run.
func HasRole(message string, roles ...auth.Role) func(http.Handler) http.Handler {
	if message == "" {
		message = "Forbidden"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden, message)
		})
	}
}

// Farmer admits farmers only.
func Farmer(message string) func(http.Handler) http.Handler {
	return HasRole(message, auth.RoleFarmer)
}

// Buyer admits buyers only.
func Buyer(message string) func(http.Handler) http.Handler {
	return HasRole(message, auth.RoleBuyer)
}
