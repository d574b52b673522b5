package routes

import (
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile/me", middleware.Protected(h.Options.JWTSecret))
	profile.Get("", h.GetProfile)
	profile.Put("", h.UpdateProfile)
	profile.Get("/progress", h.GetMyProgress)
}
