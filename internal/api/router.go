package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danharte/stencil/internal/store"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	// Uploaded file downloads (no auth; keys are unguessable)
	r.Get("/static/{key}", s.handleServeFile)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// JSON endpoints share a small body cap
		r.Group(func(r chi.Router) {
			r.Use(s.bodySizeLimitMiddleware)

			// Auth endpoints (no auth required)
			r.Post("/auth/login", s.handleLogin)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Get("/auth/me", s.handleMe)

				// User administration
				r.Route("/users", func(r chi.Router) {
					r.Use(s.requireRoles(store.AdminRole))

					r.Get("/", s.handleListUsers)
					r.Post("/", s.handleCreateUser)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", s.handleGetUser)
						r.Patch("/", s.handleUpdateUser)
						r.Delete("/", s.handleDeactivateUser)
						r.Post("/password", s.handleChangePassword)
						r.Put("/roles", s.handleAssignRoles)
					})
				})

				// Role administration
				r.Route("/roles", func(r chi.Router) {
					r.Use(s.requireRoles(store.AdminRole))

					r.Get("/", s.handleListRoles)
					r.Post("/", s.handleCreateRole)

					r.Route("/{id}", func(r chi.Router) {
						r.Patch("/", s.handleUpdateRole)
						r.Delete("/", s.handleDeactivateRole)
					})
				})

				// Reporting
				r.With(s.requireRoles(store.AdminRole)).
					Get("/reports/user-roles", s.handleUserRoleReport)
			})
		})

		// File upload sits outside the JSON body cap; the file service
		// enforces its own configured maximum.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/files", s.handleUploadFile)
		})
	})

	return r
}
