package handlers

import (
	"errors"
	"strconv"

	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/anjiri1684/quizmaster/models"
	"github.com/gofiber/fiber/v2"
)

const defaultLeaderboardSize = 10

type BadgeRequest struct {
	Code        string `json:"code" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	IconURL     string `json:"icon_url" validate:"required,url"`
	XPReward    int    `json:"xp_reward" validate:"min=0"`
}

func (h *Handler) CreateBadge(c *fiber.Ctx) error {
	var req BadgeRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	badge := models.Badge{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		XPReward:    req.XPReward,
	}
	if err := h.Users.CreateBadge(c.UserContext(), &badge); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create badge"})
	}
	return c.Status(fiber.StatusCreated).JSON(badge)
}

func (h *Handler) ListBadges(c *fiber.Ctx) error {
	badges, err := h.Users.ListBadges(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list badges"})
	}
	return c.JSON(badges)
}

func (h *Handler) UpdateBadge(c *fiber.Ctx) error {
	badgeID, ok := uuidParam(c, "badgeId")
	if !ok {
		return badRequest(c, "Invalid badge ID")
	}
	badge, err := h.Users.FindBadgeByID(c.UserContext(), badgeID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Badge not found"})
	}

	var req BadgeRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	badge.Code = req.Code
	badge.Name = req.Name
	badge.Description = req.Description
	badge.IconURL = req.IconURL
	badge.XPReward = req.XPReward
	if err := h.Users.UpdateBadge(c.UserContext(), badge); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update badge"})
	}
	return c.JSON(badge)
}

func (h *Handler) DeleteBadge(c *fiber.Ctx) error {
	badgeID, ok := uuidParam(c, "badgeId")
	if !ok {
		return badRequest(c, "Invalid badge ID")
	}
	if err := h.Users.DeleteBadge(c.UserContext(), badgeID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Badge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete badge"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type LeaderboardUser struct {
	ID                string  `json:"id"`
	FullName          string  `json:"full_name"`
	XP                int     `json:"xp"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	users, err := h.Gamification.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}

	leaderboard := make([]LeaderboardUser, len(users))
	for i, u := range users {
		leaderboard[i] = LeaderboardUser{
			ID:                u.ID.String(),
			FullName:          u.FullName,
			XP:                u.XP,
			ProfilePictureURL: u.ProfilePictureURL,
		}
	}
	return c.JSON(leaderboard)
}

func (h *Handler) ListMyCertificates(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	certificates, err := h.Certificates.ListMine(c.UserContext(), requester)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(certificates)
}

func (h *Handler) GetMyBadges(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	badges, err := h.Users.UserBadges(c.UserContext(), requester.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load badges"})
	}
	return c.JSON(badges)
}
