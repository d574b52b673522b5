package handlers

import (
	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/anjiri1684/quizmaster/services"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListQuizzes(c *fiber.Ctx) error {
	page, limit := utils.ParsePage(c.Query("page"), c.Query("limit"))
	result, err := h.Quizzes.ListPublished(c.UserContext(), c.Query("category"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": result.Quizzes, "meta": result.Pagination})
}

func (h *Handler) ListMyQuizzes(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit := utils.ParsePage(c.Query("page"), c.Query("limit"))
	result, err := h.Quizzes.ListMine(c.UserContext(), requester, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": result.Quizzes, "meta": result.Pagination})
}

// GetQuiz serves both anonymous and signed-in callers; the service decides
// which shape they are allowed to see.
func (h *Handler) GetQuiz(c *fiber.Ctx) error {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return badRequest(c, "Invalid quiz ID")
	}
	var viewer *services.Requester
	if requester, ok := middleware.CurrentRequester(c); ok {
		viewer = &requester
	}
	quiz, err := h.Quizzes.GetQuiz(c.UserContext(), viewer, quizID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quiz)
}

func (h *Handler) CreateQuiz(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	var req services.QuizInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, errCannotParse.Error())
	}
	quiz, err := h.Quizzes.CreateQuiz(c.UserContext(), requester, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quiz)
}

func (h *Handler) UpdateQuiz(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return badRequest(c, "Invalid quiz ID")
	}
	var req services.QuizInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, errCannotParse.Error())
	}
	quiz, err := h.Quizzes.UpdateQuiz(c.UserContext(), requester, quizID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quiz)
}

func (h *Handler) DeleteQuiz(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return badRequest(c, "Invalid quiz ID")
	}
	if err := h.Quizzes.DeleteQuiz(c.UserContext(), requester, quizID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) PublishQuiz(c *fiber.Ctx) error {
	return h.setPublished(c, true)
}

func (h *Handler) UnpublishQuiz(c *fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *Handler) setPublished(c *fiber.Ctx, published bool) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return badRequest(c, "Invalid quiz ID")
	}
	quiz, err := h.Quizzes.SetPublished(c.UserContext(), requester, quizID, published)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quiz)
}
