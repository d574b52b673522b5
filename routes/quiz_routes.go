package routes

import (
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/gofiber/fiber/v2"
)

// QuizRoutes mixes public and protected endpoints under one prefix, so the
// JWT middleware is attached per route.
func QuizRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")
	protected := middleware.Protected(h.Options.JWTSecret)

	quizzes := api.Group("/quizzes")
	quizzes.Get("", h.ListQuizzes)
	quizzes.Post("", protected, h.CreateQuiz)
	quizzes.Get("/mine", protected, h.ListMyQuizzes)
	quizzes.Get("/:quizId", middleware.OptionalAuth(h.Options.JWTSecret), h.GetQuiz)
	quizzes.Put("/:quizId", protected, h.UpdateQuiz)
	quizzes.Delete("/:quizId", protected, h.DeleteQuiz)
	quizzes.Post("/:quizId/publish", protected, h.PublishQuiz)
	quizzes.Post("/:quizId/unpublish", protected, h.UnpublishQuiz)
	quizzes.Post("/:quizId/attempts", protected, h.StartAttempt)
}
