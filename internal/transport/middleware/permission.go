package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
)

// RequirePermissions allows the request through when the actor carries
// any of the named permission codenames. Superusers and system admins
// always pass; their authority does not come from codename grants.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := internal.ActorFromContext(r.Context())
			if actor == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			exempt := actor.IsSuperuser || actor.Role == identity.RoleSystemAdmin
			if !exempt && !hasAny(actor, permissions) {
				slog.Warn("access denied: actor lacks required permissions",
					"user_id", actor.UserID,
					"role", actor.Role,
					"required_permissions", permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasAny(actor *accesscontrol.Actor, permissions []string) bool {
	for _, required := range permissions {
		for _, granted := range actor.Permissions {
			if granted == required {
				return true
			}
		}
	}
	return false
}
