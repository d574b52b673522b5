package routes

import (
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Register mounts the whole /api/v1 surface plus the operational endpoints.
func Register(app *fiber.App, h *handlers.Handler, gatherer prometheus.Gatherer) {
	PublicRoutes(app, gatherer)
	AuthRoutes(app, h)
	QuizRoutes(app, h)
	AttemptRoutes(app, h)
	ProfileRoutes(app, h)
	GamificationRoutes(app, h)
	AdminRoutes(app, h)
	UploadRoutes(app, h)
	WebSocketRoutes(app, h)
}
