package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes assembles the full API router: public reads and signup, the auth
// endpoints, and the session-gated admin surface.
func Routes(h *Handler, auth *AuthHandler) chi.Router {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(CORS)                    // permissive CORS for demo

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)
			r.Get("/me", auth.Me)
		})

		r.Route("/events", func(r chi.Router) {
			// Public
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Post("/{id}/signup", h.Signup)
			r.Delete("/{id}/signup/{signupID}", h.CancelSignup)

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Post("/", h.CreateEvent)
				r.Patch("/{id}", h.UpdateEvent)
				r.Delete("/{id}", h.DeleteEvent)
				r.Get("/{id}/signups", h.ListSignups)
				r.Get("/{id}/positions", h.ListPositions)
				r.Post("/{id}/positions", h.CreatePosition)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Patch("/positions/{id}", h.UpdatePosition)
			r.Delete("/positions/{id}", h.DeletePosition)
		})
	})

	return r
}
