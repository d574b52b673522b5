package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type QuizAuthoringStore interface {
	QuizStore
	CreateQuiz(ctx context.Context, quiz *models.Quiz) error
	ReplaceQuiz(ctx context.Context, quiz *models.Quiz) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	ListQuizzes(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int64, error)
}

type OptionInput struct {
	Text    string `json:"text" validate:"required,max=1000"`
	Correct bool   `json:"correct"`
}

type QuestionInput struct {
	Text    string        `json:"text" validate:"required,max=2000"`
	Type    string        `json:"type" validate:"omitempty,oneof=multiple_choice true_false free_text"`
	Options []OptionInput `json:"options" validate:"dive"`
}

// QuizInput is the full authoring payload. A pass percentage of 0 or an
// omitted one means the default of 70.
type QuizInput struct {
	Title            string          `json:"title" validate:"required,min=3,max=255"`
	Description      string          `json:"description" validate:"max=5000"`
	Category         string          `json:"category" validate:"max=100"`
	CoverImageURL    *string         `json:"cover_image_url" validate:"omitempty,url"`
	PassPercentage   *int            `json:"pass_percentage" validate:"omitempty,min=0,max=100"`
	TimeLimitMinutes int             `json:"time_limit_minutes" validate:"min=0,max=1440"`
	Questions        []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

type QuizPage struct {
	Quizzes []models.QuizView `json:"quizzes"`
	utils.Pagination
}

type QuizService struct {
	quizzes  QuizAuthoringStore
	attempts AttemptStore
}

func NewQuizService(quizzes QuizAuthoringStore, attempts AttemptStore) *QuizService {
	return &QuizService{quizzes: quizzes, attempts: attempts}
}

func (s *QuizService) CreateQuiz(ctx context.Context, requester Requester, input QuizInput) (*models.Quiz, error) {
	quiz, err := buildQuiz(input)
	if err != nil {
		return nil, err
	}
	quiz.ID = uuid.New()
	quiz.CreatedBy = requester.ID
	quiz.IsPublished = false
	assignQuestionIDs(quiz)

	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return nil, internal("Failed to create quiz", err)
	}
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(ctx context.Context, requester Requester, quizID uuid.UUID, input QuizInput) (*models.Quiz, error) {
	existing, err := s.ownedQuiz(ctx, requester, quizID)
	if err != nil {
		return nil, err
	}
	if existing.IsPublished {
		return nil, conflict("Unpublish the quiz before editing it")
	}

	quiz, err := buildQuiz(input)
	if err != nil {
		return nil, err
	}
	quiz.ID = existing.ID
	quiz.CreatedBy = existing.CreatedBy
	quiz.CreatedAt = existing.CreatedAt
	assignQuestionIDs(quiz)

	if err := s.quizzes.ReplaceQuiz(ctx, quiz); err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	updated, err := s.quizzes.FindQuizByID(ctx, quiz.ID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	return updated, nil
}

func (s *QuizService) SetPublished(ctx context.Context, requester Requester, quizID uuid.UUID, published bool) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, requester, quizID)
	if err != nil {
		return nil, err
	}
	if published && len(quiz.Questions) == 0 {
		return nil, invalid("A quiz needs at least one question before it can be published")
	}
	if err := s.quizzes.SetPublished(ctx, quiz.ID, published); err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	quiz.IsPublished = published
	return quiz, nil
}

// DeleteQuiz refuses quizzes that already have attempts so results keep a
// quiz to point at.
func (s *QuizService) DeleteQuiz(ctx context.Context, requester Requester, quizID uuid.UUID) error {
	quiz, err := s.ownedQuiz(ctx, requester, quizID)
	if err != nil {
		return err
	}

	_, total, err := s.attempts.List(ctx, models.AttemptFilter{QuizID: &quiz.ID, Page: 1, Limit: 1})
	if err != nil {
		return internal("Failed to check quiz attempts", err)
	}
	if total > 0 {
		return conflict("Quiz has attempts and cannot be deleted; unpublish it instead")
	}

	if err := s.quizzes.DeleteQuiz(ctx, quiz.ID); err != nil {
		return storeError(err, "Quiz not found")
	}
	return nil
}

// GetQuiz returns the full definition to its author and admins. Anyone else
// gets the projection, and only for a published quiz.
func (s *QuizService) GetQuiz(ctx context.Context, requester *Requester, quizID uuid.UUID) (interface{}, error) {
	if quizID == uuid.Nil {
		return nil, invalid("Quiz ID is required")
	}
	quiz, err := s.quizzes.FindQuizByID(ctx, quizID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	if requester != nil && (requester.IsAdmin || quiz.IsOwnedBy(requester.ID)) {
		return quiz, nil
	}
	if !quiz.IsPublished {
		return nil, notFound("Quiz not found")
	}
	view := quiz.View()
	return &view, nil
}

func (s *QuizService) ListPublished(ctx context.Context, category string, page, limit int) (*QuizPage, error) {
	return s.list(ctx, models.QuizFilter{PublishedOnly: true, Category: strings.TrimSpace(category), Page: page, Limit: limit})
}

func (s *QuizService) ListMine(ctx context.Context, requester Requester, page, limit int) (*QuizPage, error) {
	return s.list(ctx, models.QuizFilter{CreatedBy: &requester.ID, Page: page, Limit: limit})
}

func (s *QuizService) list(ctx context.Context, filter models.QuizFilter) (*QuizPage, error) {
	filter.Page, filter.Limit = utils.NormalizePage(filter.Page, filter.Limit)
	quizzes, total, err := s.quizzes.ListQuizzes(ctx, filter)
	if err != nil {
		return nil, internal("Failed to list quizzes", err)
	}

	views := make([]models.QuizView, len(quizzes))
	for i := range quizzes {
		views[i] = quizzes[i].Summary()
	}
	return &QuizPage{Quizzes: views, Pagination: utils.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func (s *QuizService) ownedQuiz(ctx context.Context, requester Requester, quizID uuid.UUID) (*models.Quiz, error) {
	if quizID == uuid.Nil {
		return nil, invalid("Quiz ID is required")
	}
	quiz, err := s.quizzes.FindQuizByID(ctx, quizID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	if !requester.IsAdmin && !quiz.IsOwnedBy(requester.ID) {
		return nil, forbidden("Only the quiz author can change this quiz")
	}
	return quiz, nil
}

func buildQuiz(input QuizInput) (*models.Quiz, error) {
	if err := validate.Struct(input); err != nil {
		return nil, &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}

	quiz := &models.Quiz{
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		Category:         strings.TrimSpace(input.Category),
		CoverImageURL:    input.CoverImageURL,
		PassPercentage:   models.DefaultPassPercentage,
		TimeLimitMinutes: input.TimeLimitMinutes,
	}
	if input.PassPercentage != nil {
		quiz.PassPercentage = *input.PassPercentage
	}

	for i, q := range input.Questions {
		questionType := models.QuestionType(q.Type)
		if questionType == "" {
			questionType = models.QuestionMultipleChoice
		}

		question := &models.Question{Position: i, Text: strings.TrimSpace(q.Text), Type: questionType}
		if questionType != models.QuestionFreeText {
			if len(q.Options) < 2 {
				return nil, invalid(fmt.Sprintf("Question %d needs at least two options", i+1))
			}
			if questionType == models.QuestionTrueFalse && len(q.Options) != 2 {
				return nil, invalid(fmt.Sprintf("Question %d is true/false and needs exactly two options", i+1))
			}
			correct := 0
			for _, option := range q.Options {
				if option.Correct {
					correct++
				}
			}
			if correct == 0 {
				return nil, invalid(fmt.Sprintf("Question %d needs at least one correct option", i+1))
			}
		}

		for j, o := range q.Options {
			question.Options = append(question.Options, &models.AnswerOption{
				Position: j,
				Text:     strings.TrimSpace(o.Text),
				Correct:  o.Correct,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

// assignQuestionIDs fills ids up front so both store backends persist the same
// identities.
func assignQuestionIDs(quiz *models.Quiz) {
	for _, question := range quiz.Questions {
		question.ID = uuid.New()
		question.QuizID = quiz.ID
		for _, option := range question.Options {
			option.ID = uuid.New()
			option.QuestionID = question.ID
		}
	}
}
