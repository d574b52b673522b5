package routes

import (
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/gofiber/fiber/v2"
)

func AttemptRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	attempts := api.Group("/attempts", middleware.Protected(h.Options.JWTSecret))
	attempts.Get("", h.ListAttempts)
	attempts.Get("/:attemptId", h.GetAttempt)
	attempts.Put("/:attemptId/answers", h.SubmitAnswer)
	attempts.Post("/:attemptId/complete", h.CompleteAttempt)
	attempts.Post("/:attemptId/certificate", h.IssueCertificate)
}
