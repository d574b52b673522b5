package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/services"
	"github.com/anjiri1684/quizmaster/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// UserStore is the account and badge catalogue surface used by the auth,
// profile and admin handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, int64, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	UserBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	FindBadgeByID(ctx context.Context, id uuid.UUID) (*models.Badge, error)
	CreateBadge(ctx context.Context, badge *models.Badge) error
	UpdateBadge(ctx context.Context, badge *models.Badge) error
	DeleteBadge(ctx context.Context, id uuid.UUID) error
}

type Mailer interface {
	SendAsync(toName, toEmail, subject, htmlContent string)
}

type Options struct {
	JWTSecret     string
	JWTTTL        time.Duration
	FrontendURL   string
	CloudinaryURL string
	UploadFolder  string
}

type Handler struct {
	Quizzes      *services.QuizService
	Attempts     *services.AttemptService
	Gamification *services.GamificationService
	Certificates *services.CertificateService
	Users        UserStore
	Mailer       Mailer
	Hub          *websocket.Hub
	Options      Options
}

// respondError writes a service failure with the status matching its kind.
// A start conflict also carries the attempt the client should resume.
func respondError(c *fiber.Ctx, err error) error {
	var serviceErr *services.Error
	if !errors.As(err, &serviceErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	switch serviceErr.Kind {
	case services.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": serviceErr.Message})
	case services.KindForbidden:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": serviceErr.Message})
	case services.KindConflict:
		body := fiber.Map{"error": serviceErr.Message}
		if serviceErr.Attempt != nil {
			body["attempt"] = serviceErr.Attempt
		}
		return c.Status(fiber.StatusConflict).JSON(body)
	case services.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": serviceErr.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": serviceErr.Message})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired JWT"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

var errCannotParse = errors.New("Cannot parse JSON")

// parseBody decodes and validates a JSON body. The returned error message is
// safe to send to the client.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errCannotParse
	}
	return validate.Struct(out)
}
