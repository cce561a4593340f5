package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// Register mounts the health and model routes on app.
func Register(app *fiber.App, health *HealthHandler, models *ModelHandler) {
	app.Get("/health/live", health.Liveness)
	app.Get("/health/ready", health.Readiness)

	app.Post("/assemble", models.Assemble)
	app.Get("/assemble/demo", models.Demo)

	app.Post("/models", models.Create)
	app.Get("/models", models.List)
	app.Get("/models/:id", models.Get)
	app.Get("/models/:id/ifc", models.GetIFC)
	app.Get("/models/:id/mesh", models.GetMesh)
	app.Get("/models/:id/plan.svg", models.GetPlan)
}
