package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/moemen20/phoenix-tracker/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.Me)
	r.Post("/api/auth/verify-upline", handlers.VerifyUpline)

	// Google sign-in (disabled when credentials are unset)
	r.Get("/api/auth/google", handlers.GoogleLogin)
	r.Get("/api/auth/google/callback", handlers.GoogleCallback)

	// Prospect routes
	r.Post("/api/prospects", handlers.CreateProspect)
	r.Get("/api/prospects", handlers.ListProspects)
	r.Put("/api/prospects", handlers.UpdateProspect)
	r.Delete("/api/prospects", handlers.DeleteProspect)

	// Contact routes
	r.Post("/api/contacts", handlers.CreateContact)
	r.Get("/api/contacts", handlers.ListContacts)
	r.Put("/api/contacts", handlers.UpdateContact)
	r.Delete("/api/contacts", handlers.DeleteContact)

	// Task routes
	r.Post("/api/tasks", handlers.CreateTask)
	r.Get("/api/tasks", handlers.ListTasks)
	r.Put("/api/tasks", handlers.UpdateTask)
	r.Put("/api/tasks/complete", handlers.CompleteTask)
	r.Delete("/api/tasks", handlers.DeleteTask)

	// Statistics routes
	r.Get("/api/stats/team", handlers.GetTeamStats)
	r.Get("/api/stats/network", handlers.GetNetworkStats)
	r.Get("/api/downlines", handlers.ListDownlines)
	r.Get("/api/team/members", handlers.ListTeamMembers)

	// WebSocket endpoint for live record queries (full result set replay)
	r.Get("/ws/records", handlers.LiveRecords)
}
