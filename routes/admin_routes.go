package routes

import (
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(h.Options.JWTSecret), middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("", h.GetAllUsers)
	users.Put("/:userId/status", h.ToggleUserStatus)

	reports := admin.Group("/reports")
	reports.Get("/attempts", h.GenerateAttemptReport)
}
