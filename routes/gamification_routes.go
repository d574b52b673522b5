package routes

import (
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/gofiber/fiber/v2"
)

func GamificationRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")
	protected := middleware.Protected(h.Options.JWTSecret)

	gamification := api.Group("/gamification")
	gamification.Get("/leaderboard", h.GetLeaderboard)
	gamification.Get("/certificates/me", protected, h.ListMyCertificates)
	gamification.Get("/badges/me", protected, h.GetMyBadges)

	badges := api.Group("/admin/gamification/badges", protected, middleware.AdminRequired())
	badges.Post("", h.CreateBadge)
	badges.Get("", h.ListBadges)
	badges.Put("/:badgeId", h.UpdateBadge)
	badges.Delete("/:badgeId", h.DeleteBadge)
}
