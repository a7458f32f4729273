package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/api/http/handlers"
	"github.com/spec-kit/club-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	Trainings      *handlers.TrainingsHandler
	Enrollments    *handlers.EnrollmentsHandler
	Memberships    *handlers.MembershipsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password-reset", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password-reset-confirm", cfg.Auth.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protectedAuth.Post("/logout", auth.Require(auth.OpLogout), cfg.Auth.Logout)
	protectedAuth.Post("/change-password", auth.Require(auth.OpManageProfile), cfg.Auth.ChangePassword)

	users := protectedAuth.Group("/users")
	users.Get("/", auth.Require(auth.OpListUsers), cfg.Users.List)
	users.Get("/me", auth.Require(auth.OpManageProfile), cfg.Users.Me)
	users.Put("/me", auth.Require(auth.OpManageProfile), cfg.Users.UpdateMe)
	users.Get("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Get)
	users.Put("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Update)
	users.Delete("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Delete)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	sports := protected.Group("/sports")
	sports.Get("/", auth.Require(auth.OpViewCatalog), cfg.Catalog.ListSports)
	sports.Get("/:id", auth.Require(auth.OpViewCatalog), cfg.Catalog.GetSport)
	sports.Post("/", auth.Require(auth.OpManageSports), cfg.Catalog.CreateSport)
	sports.Put("/:id", auth.Require(auth.OpManageSports), cfg.Catalog.UpdateSport)
	sports.Delete("/:id", auth.Require(auth.OpManageSports), cfg.Catalog.DeleteSport)

	trainings := protected.Group("/trainings")
	trainings.Get("/", auth.Require(auth.OpViewTrainings), cfg.Trainings.List)
	trainings.Get("/upcoming", auth.Require(auth.OpViewTrainings), cfg.Trainings.Upcoming)
	trainings.Get("/my-trainings", auth.Require(auth.OpViewOwnTrainings), cfg.Trainings.MyTrainings)
	trainings.Get("/:id", auth.Require(auth.OpViewTrainings), cfg.Trainings.Get)
	trainings.Post("/", auth.Require(auth.OpManageTrainings), cfg.Trainings.Create)
	trainings.Put("/:id", auth.Require(auth.OpManageTrainings), cfg.Trainings.Update)
	trainings.Delete("/:id", auth.Require(auth.OpManageTrainings), cfg.Trainings.Delete)
	trainings.Post("/:id/enroll", auth.Require(auth.OpEnroll), cfg.Trainings.Enroll)
	trainings.Post("/:id/cancel-enrollment", auth.Require(auth.OpEnroll), cfg.Trainings.CancelEnrollment)
	trainings.Get("/:id/enrollments", auth.Require(auth.OpViewTrainingEnrollments), cfg.Trainings.Enrollments)

	enrollments := protected.Group("/enrollments")
	enrollments.Get("/my-enrollments", auth.Require(auth.OpViewOwnEnrollments), cfg.Enrollments.MyEnrollments)
	enrollments.Patch("/:id/attendance", auth.Require(auth.OpMarkAttendance), cfg.Enrollments.MarkAttendance)

	plans := protected.Group("/membership-plans")
	plans.Get("/", auth.Require(auth.OpViewCatalog), cfg.Catalog.ListPlans)
	plans.Get("/:id", auth.Require(auth.OpViewCatalog), cfg.Catalog.GetPlan)
	plans.Post("/", auth.Require(auth.OpManagePlans), cfg.Catalog.CreatePlan)
	plans.Put("/:id", auth.Require(auth.OpManagePlans), cfg.Catalog.UpdatePlan)
	plans.Delete("/:id", auth.Require(auth.OpManagePlans), cfg.Catalog.DeletePlan)

	memberships := protected.Group("/memberships")
	memberships.Get("/my-membership", auth.Require(auth.OpViewOwnMembership), cfg.Memberships.MyMembership)
	memberships.Get("/", auth.Require(auth.OpManageMemberships), cfg.Memberships.List)
	memberships.Post("/", auth.Require(auth.OpManageMemberships), cfg.Memberships.Create)
	memberships.Get("/:id", auth.Require(auth.OpManageMemberships), cfg.Memberships.Get)
	memberships.Put("/:id", auth.Require(auth.OpManageMemberships), cfg.Memberships.Update)
}
