package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Sheet1"

type UserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	page, limit := utils.ParsePage(c.Query("page"), c.Query("limit"))
	search := strings.TrimSpace(c.Query("search"))

	users, total, err := h.Users.ListUsers(c.UserContext(), search, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(fiber.Map{
		"data": users,
		"meta": utils.NewPagination(page, limit, total),
	})
}

func (h *Handler) ToggleUserStatus(c *fiber.Ctx) error {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return badRequest(c, "Invalid user ID")
	}
	var req UserStatusRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.Users.SetUserActive(c.UserContext(), userID, *req.IsActive); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user status"})
	}
	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

// GenerateAttemptReport exports every attempt matching quiz_id and status as
// an xlsx workbook.
func (h *Handler) GenerateAttemptReport(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := attemptFilterFromQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	filter.Limit = utils.MaxLimit

	f := excelize.NewFile()
	defer f.Close()

	headers := []interface{}{"Attempt ID", "User ID", "Quiz ID", "Status", "Started", "Ended", "Time Spent (s)", "Correct Answers", "Percentage", "Passed"}
	if err := f.SetSheetRow(reportSheet, "A1", &headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write report header"})
	}

	row := 2
	for filter.Page = 1; ; filter.Page++ {
		result, err := h.Attempts.ListAttempts(c.UserContext(), requester, filter)
		if err != nil {
			return respondError(c, err)
		}
		for _, attempt := range result.Attempts {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := attemptReportRow(attempt)
			if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write report row"})
			}
			row++
		}
		if filter.Page >= result.LastPage {
			break
		}
	}
	_ = f.SetColWidth(reportSheet, "A", "C", 38)
	_ = f.SetColWidth(reportSheet, "E", "F", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"attempts_%s.xlsx\"", time.Now().UTC().Format("2006-01-02")))
	return c.Send(buf.Bytes())
}

func attemptReportRow(attempt models.Attempt) []interface{} {
	ended := ""
	if attempt.EndTime != nil {
		ended = attempt.EndTime.Format("2006-01-02 15:04")
	}
	passed := ""
	if attempt.Passed != nil {
		passed = "no"
		if *attempt.Passed {
			passed = "yes"
		}
	}
	return []interface{}{
		attempt.ID.String(),
		attempt.UserID.String(),
		attempt.QuizID.String(),
		string(attempt.Status),
		attempt.StartTime.Format("2006-01-02 15:04"),
		ended,
		optionalInt(attempt.TimeSpent),
		optionalInt(attempt.Score),
		optionalInt(attempt.Percentage),
		passed,
	}
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
