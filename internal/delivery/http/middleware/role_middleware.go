package middleware

import (
	"net/http"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/pkg/response"
)

// RequireRole creates a middleware that checks if the user has any of the required roles
// Role is read from context (set by AuthMiddleware from JWT claims)
func RequireRole(allowedRoleIDs ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get role ID from context (set by AuthMiddleware)
			roleID, ok := GetRoleIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			// Check if user's role is in allowed roles
			allowed := false
			for _, allowedRoleID := range allowedRoleIDs {
				if roleID == allowedRoleID {
					allowed = true
					break
				}
			}

			if !allowed {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin is a convenience middleware for super-admin-only endpoints
func RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDSuperAdmin)(next)
}

// RequireClinicAdmin is a convenience middleware for clinic-admin-only endpoints
func RequireClinicAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDClinicAdmin)(next)
}

// RequirePatient is a convenience middleware for patient-only endpoints
func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDPatient)(next)
}

// RequireAnyAdmin allows clinic admins and support-desk admins
func RequireAnyAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDClinicAdmin, entity.RoleIDSupportAdmin)(next)
}
