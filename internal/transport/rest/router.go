package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/Captainsparrow404/neuvii-backend/internal/auth"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
	"github.com/Captainsparrow404/neuvii-backend/internal/therapy"
	"github.com/Captainsparrow404/neuvii-backend/internal/transport/middleware"
	"github.com/Captainsparrow404/neuvii-backend/internal/transport/swagger"
)

// RegisterAllRoutes wires the full HTTP surface: the auth endpoints,
// the clinic and caseload CRUD routes behind the auth middleware, and
// the operational routes (health, swagger).
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, clinicHandler *clinic.Handler, therapyHandler *therapy.Handler, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORSWithOrigins(allowedOrigins))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Get("/reset-password", authHandler.ResetPasswordCheck)
			sr.Post("/reset-password", authHandler.ResetPassword)
			sr.Post("/logout", authHandler.Logout)
		})

		// Protected routes
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", authHandler.CurrentUser)
			pr.Post("/auth/change-password", authHandler.ChangePassword)

			pr.Route("/clinics", func(cr chi.Router) {
				cr.Post("/", clinicHandler.Create)
				cr.Get("/", clinicHandler.List)
				cr.Get("/{id}", clinicHandler.Get)
				cr.Patch("/{id}", clinicHandler.Update)
				cr.Delete("/{id}", clinicHandler.Delete)
			})

			pr.Route("/therapists", func(tr chi.Router) {
				tr.With(middleware.RequirePermissions("add_therapistprofile")).Post("/", therapyHandler.CreateTherapist)
				tr.Get("/", therapyHandler.ListTherapists)
				tr.Get("/{id}", therapyHandler.GetTherapist)
				tr.Patch("/{id}", therapyHandler.UpdateTherapist)
				tr.Delete("/{id}", therapyHandler.DeleteTherapist)
			})

			pr.Route("/parents", func(pa chi.Router) {
				pa.With(middleware.RequirePermissions("add_parentprofile")).Post("/", therapyHandler.CreateParent)
				pa.Get("/", therapyHandler.ListParents)
				pa.Get("/{id}", therapyHandler.GetParent)
				pa.Patch("/{id}", therapyHandler.UpdateParent)
				pa.Delete("/{id}", therapyHandler.DeleteParent)
			})

			pr.Route("/children", func(ch chi.Router) {
				ch.With(middleware.RequirePermissions("add_child")).Post("/", therapyHandler.CreateChild)
				ch.Get("/", therapyHandler.ListChildren)
				ch.Get("/{id}", therapyHandler.GetChild)
				ch.Patch("/{id}", therapyHandler.UpdateChild)
				ch.Delete("/{id}", therapyHandler.DeleteChild)
			})

			pr.Route("/goals", func(gr chi.Router) {
				gr.Post("/", therapyHandler.CreateGoal)
				gr.Get("/", therapyHandler.ListGoals)
				gr.Get("/{id}", therapyHandler.GetGoal)
				gr.Patch("/{id}", therapyHandler.UpdateGoal)
				gr.Delete("/{id}", therapyHandler.DeleteGoal)
			})

			pr.Route("/tasks", func(ta chi.Router) {
				ta.Post("/", therapyHandler.CreateTask)
				ta.Get("/", therapyHandler.ListTasks)
				ta.Get("/{id}", therapyHandler.GetTask)
				ta.Patch("/{id}", therapyHandler.UpdateTask)
				ta.Delete("/{id}", therapyHandler.DeleteTask)
			})

			pr.Route("/assignments", func(ar chi.Router) {
				ar.Post("/", therapyHandler.CreateAssignment)
				ar.Get("/", therapyHandler.ListAssignments)
				ar.Get("/{id}", therapyHandler.GetAssignment)
				ar.Patch("/{id}", therapyHandler.UpdateAssignment)
				ar.Delete("/{id}", therapyHandler.DeleteAssignment)
			})
		})
	})
}
