package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Notes          *handlers.NotesHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	users.Put("/me", cfg.AuthMiddleware.Handle, cfg.Users.UpdateMe)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	notes := tickets.Group("/:ticketId/notes")
	notes.Get("/", cfg.Notes.ListNotes)
	notes.Post("/", cfg.Notes.AddNote)
	notes.Put("/:id", cfg.Notes.UpdateNote)
	notes.Delete("/:id", cfg.Notes.DeleteNote)
}
