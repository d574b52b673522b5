package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var errInvalidClaims = errors.New("invalid token claims")

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

// OptionalAuth validates a bearer token when one is sent and lets anonymous
// requests through untouched.
func OptionalAuth(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requester, ok := CurrentRequester(c)
		if !ok || !requester.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentRequester reads the identity left in Locals by Protected or
// OptionalAuth. ok is false for anonymous requests.
func CurrentRequester(c *fiber.Ctx) (services.Requester, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return services.Requester{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Requester{}, false
	}
	requester, err := requesterFromClaims(claims)
	if err != nil {
		return services.Requester{}, false
	}
	return requester, true
}

func requesterFromClaims(claims jwt.MapClaims) (services.Requester, error) {
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return services.Requester{}, errInvalidClaims
	}
	role, _ := claims["role"].(string)
	return services.Requester{ID: userID, IsAdmin: role == models.RoleAdmin}, nil
}

// IssueToken signs the HS256 token accepted by Protected.
func IssueToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a raw token outside the HTTP middleware chain, as the
// websocket handshake needs.
func ParseToken(secret, tokenString string) (services.Requester, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return services.Requester{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return services.Requester{}, errors.New("invalid token")
	}
	return requesterFromClaims(claims)
}
