package handlers

import (
	"errors"

	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/services"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubmitAnswerRequest struct {
	QuestionID     string `json:"questionId" validate:"required,uuid"`
	SelectedAnswer string `json:"selectedAnswer" validate:"max=5000"`
	TimeSpent      int    `json:"timeSpent" validate:"min=0"`
}

func (h *Handler) StartAttempt(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return badRequest(c, "Invalid quiz ID")
	}
	started, err := h.Attempts.StartAttempt(c.UserContext(), requester, quizID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(started)
}

func (h *Handler) SubmitAnswer(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	attemptID, ok := uuidParam(c, "attemptId")
	if !ok {
		return badRequest(c, "Invalid attempt ID")
	}
	var req SubmitAnswerRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	submitted, err := h.Attempts.SubmitAnswer(c.UserContext(), requester, attemptID, services.SubmitAnswerInput{
		QuestionID:     uuid.MustParse(req.QuestionID),
		SelectedAnswer: req.SelectedAnswer,
		TimeSpent:      req.TimeSpent,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(submitted)
}

func (h *Handler) CompleteAttempt(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	attemptID, ok := uuidParam(c, "attemptId")
	if !ok {
		return badRequest(c, "Invalid attempt ID")
	}
	completed, err := h.Attempts.CompleteAttempt(c.UserContext(), requester, attemptID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(completed)
}

func (h *Handler) GetAttempt(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	attemptID, ok := uuidParam(c, "attemptId")
	if !ok {
		return badRequest(c, "Invalid attempt ID")
	}
	attempt, err := h.Attempts.GetAttempt(c.UserContext(), requester, attemptID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(attempt)
}

func (h *Handler) ListAttempts(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := attemptFilterFromQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	result, err := h.Attempts.ListAttempts(c.UserContext(), requester, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": result.Attempts, "meta": result.Pagination})
}

func (h *Handler) IssueCertificate(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	attemptID, ok := uuidParam(c, "attemptId")
	if !ok {
		return badRequest(c, "Invalid attempt ID")
	}
	certificate, err := h.Certificates.Issue(c.UserContext(), requester, attemptID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(certificate)
}

// attemptFilterFromQuery reads user_id, quiz_id, status, page and limit.
func attemptFilterFromQuery(c *fiber.Ctx) (models.AttemptFilter, error) {
	filter := models.AttemptFilter{Status: models.AttemptStatus(c.Query("status"))}
	filter.Page, filter.Limit = utils.ParsePage(c.Query("page"), c.Query("limit"))

	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("Invalid user_id")
		}
		filter.UserID = &id
	}
	if raw := c.Query("quiz_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("Invalid quiz_id")
		}
		filter.QuizID = &id
	}
	return filter, nil
}
