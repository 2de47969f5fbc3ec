package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	"github.com/frahmantamala/crew-timekeeping/internal/timesheet"
	"github.com/frahmantamala/crew-timekeeping/internal/transport/middleware"
	"github.com/frahmantamala/crew-timekeeping/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
)

// Handlers groups everything the router mounts. Nil members are skipped so
// partial wiring (tests, workers) still gets a usable mux.
type Handlers struct {
	Auth       *auth.Handler
	Timeclock  *timeclock.Handler
	Timesheet  *timesheet.Handler
	Permission *permission.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, handlers Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.CORSMiddleware(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Auth == nil {
			return
		}

		// Everything else requires a valid access token.
		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			pr.Get("/users/me", handlers.Auth.GetCurrentUser)

			if handlers.Timeclock != nil {
				pr.Route("/assignments/{id}", func(ar chi.Router) {
					ar.Post("/clock-in", handlers.Timeclock.ClockIn)   // POST /assignments/:id/clock-in
					ar.Post("/clock-out", handlers.Timeclock.ClockOut) // POST /assignments/:id/clock-out
				})
			}

			pr.Route("/shifts/{id}", func(sr chi.Router) {
				if handlers.Timeclock != nil {
					sr.Post("/end", handlers.Timeclock.EndShift)              // POST /shifts/:id/end
					sr.Get("/adjustments", handlers.Timeclock.GetAdjustments) // GET /shifts/:id/adjustments
				}
				if handlers.Timesheet != nil {
					sr.Post("/timesheet/finalize", handlers.Timesheet.Finalize) // POST /shifts/:id/timesheet/finalize
				}
				if handlers.Permission != nil {
					sr.Get("/permission", handlers.Permission.CheckPermission) // GET /shifts/:id/permission
				}
			})

			if handlers.Timesheet != nil {
				pr.Route("/timesheets/{id}", func(tr chi.Router) {
					tr.Get("/", handlers.Timesheet.GetTimesheet)                // GET /timesheets/:id
					tr.Post("/approve-client", handlers.Timesheet.ClientApprove) // POST /timesheets/:id/approve-client

					// Manager-only transitions
					tr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireManagement(logger))
						mr.Post("/approve-manager", handlers.Timesheet.ManagerApprove) // POST /timesheets/:id/approve-manager
						mr.Post("/reject", handlers.Timesheet.Reject)                  // POST /timesheets/:id/reject
					})
				})
			}

			if handlers.Permission != nil {
				pr.Route("/crew-chief-permissions", func(cr chi.Router) {
					cr.Use(middleware.RequireManagement(logger))
					cr.Post("/", handlers.Permission.CreateGrant)        // POST /crew-chief-permissions
					cr.Delete("/{id}", handlers.Permission.RevokeGrant) // DELETE /crew-chief-permissions/:id
				})
			}
		})
	})
}
