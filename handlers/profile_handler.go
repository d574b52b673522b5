package handlers

import (
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	FullName          *string `json:"full_name" validate:"omitempty,min=3,max=255"`
	ProfilePictureURL *string `json:"profile_picture_url" validate:"omitempty,url"`
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	user, err := h.Users.FindUserByID(c.UserContext(), requester.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	var req UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Users.FindUserByID(c.UserContext(), requester.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.ProfilePictureURL != nil {
		user.ProfilePictureURL = req.ProfilePictureURL
	}

	if err := h.Users.UpdateUser(c.UserContext(), user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(user)
}

func (h *Handler) GetMyProgress(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	stats, err := h.Attempts.Progress(c.UserContext(), requester.ID)
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.Users.FindUserByID(c.UserContext(), requester.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{
		"completed_attempts": stats.Completed,
		"passed_attempts":    stats.Passed,
		"perfect_scores":     stats.Perfect,
		"average_percentage": stats.AveragePercentage,
		"xp":                 user.XP,
		"badges_earned":      len(user.Badges),
	})
}
