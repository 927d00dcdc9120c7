package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Issues         *handlers.IssuesHandler
	StaffIssues    *handlers.StaffIssuesHandler
	Stats          *handlers.StatsHandler
	Export         *handlers.ExportHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *DailySubmissionLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Staff.ChangePassword)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle, auth.RequireResident())
	issues.Post("/", cfg.RateLimiter.Handle, cfg.Issues.Create)
	issues.Post("/classify", cfg.Issues.Classify)
	issues.Get("/", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Post("/:id/confirm", cfg.Issues.ConfirmResolution)
	issues.Post("/:id/reject", cfg.Issues.RejectResolution)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/issues", cfg.StaffIssues.List)
	staff.Get("/issues/export", cfg.Export.IssuesCSV)
	staff.Get("/issues/:id", cfg.StaffIssues.Get)
	staff.Patch("/issues/:id/status", cfg.StaffIssues.UpdateStatus)
	staff.Post("/issues/:id/assign", cfg.StaffIssues.Assign)
	staff.Put("/issues/:id/notes", cfg.StaffIssues.UpdateNotes)
	staff.Get("/departments/:department/candidates", cfg.StaffIssues.Candidates)
	staff.Get("/stats", cfg.Stats.Overview)
}
