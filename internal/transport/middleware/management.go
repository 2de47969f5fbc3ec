package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
)

// RequireManagement gates a route group to manager and admin roles. Routes
// where authority depends on the target shift resolve it in the service
// layer instead.
func RequireManagement(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.Role.IsManagement() {
				logger.Warn("access denied: management role required",
					"user_id", user.ID,
					"role", user.Role,
					"path", r.URL.Path)
				http.Error(w, "Forbidden: manager or admin role required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
