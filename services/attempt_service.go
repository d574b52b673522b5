package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/scoring"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/google/uuid"
)

type QuizStore interface {
	FindQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

// AttemptStore must enforce the single in-progress attempt per user and quiz
// itself. CreateActive fails with models.ErrActiveAttemptExists, UpsertAnswer
// and Complete with models.ErrAttemptNotActive once the attempt has left
// in_progress.
type AttemptStore interface {
	CreateActive(ctx context.Context, attempt *models.Attempt) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error)
	FindActive(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error)
	UpsertAnswer(ctx context.Context, attemptID uuid.UUID, answer *models.AttemptAnswer) (*models.AttemptAnswer, error)
	Complete(ctx context.Context, attemptID uuid.UUID, finalize func(*models.Attempt)) (*models.Attempt, error)
	List(ctx context.Context, filter models.AttemptFilter) ([]models.Attempt, int64, error)
	Stats(ctx context.Context, userID uuid.UUID) (models.AttemptStats, error)
	ExpireStale(ctx context.Context, before time.Time, status models.AttemptStatus) (int64, error)
	ListInProgressStartedBetween(ctx context.Context, from, to time.Time) ([]models.Attempt, error)
}

// AttemptObserver hooks run after a transition has been persisted. They must
// not fail the request, so they return nothing.
type AttemptObserver interface {
	AttemptStarted(ctx context.Context, attempt *models.Attempt)
	AttemptCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults)
}

// ConflictRecorder is implemented by observers that count rejected operations.
type ConflictRecorder interface {
	AttemptConflict(operation string)
}

type Requester struct {
	ID      uuid.UUID
	IsAdmin bool
}

type StartedAttempt struct {
	Attempt *models.Attempt  `json:"attempt"`
	Quiz    *models.QuizView `json:"quiz"`
}

type SubmittedAnswer struct {
	Answer    *models.AttemptAnswer `json:"answer"`
	IsCorrect bool                  `json:"isCorrect"`
}

type CompletedAttempt struct {
	Attempt *models.Attempt       `json:"attempt"`
	Results models.AttemptResults `json:"results"`
}

type SubmitAnswerInput struct {
	QuestionID     uuid.UUID
	SelectedAnswer string
	TimeSpent      int
}

type AttemptPage struct {
	Attempts []models.Attempt `json:"attempts"`
	utils.Pagination
}

type AttemptService struct {
	quizzes   QuizStore
	attempts  AttemptStore
	observers []AttemptObserver
	now       func() time.Time
}

func NewAttemptService(quizzes QuizStore, attempts AttemptStore, observers ...AttemptObserver) *AttemptService {
	return &AttemptService{
		quizzes:   quizzes,
		attempts:  attempts,
		observers: observers,
		now:       time.Now,
	}
}

func (s *AttemptService) StartAttempt(ctx context.Context, requester Requester, quizID uuid.UUID) (*StartedAttempt, error) {
	if quizID == uuid.Nil {
		return nil, invalid("Quiz ID is required")
	}

	quiz, err := s.quizzes.FindQuizByID(ctx, quizID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	if !quiz.IsPublished {
		return nil, forbidden("Quiz is not published")
	}

	// A finished attempt can slip in between a failed insert and the lookup of
	// the blocking attempt, so the insert is retried once.
	for try := 0; try < 2; try++ {
		attempt := &models.Attempt{
			ID:        uuid.New(),
			UserID:    requester.ID,
			QuizID:    quiz.ID,
			Status:    models.AttemptInProgress,
			StartTime: s.now().UTC(),
			Answers:   []*models.AttemptAnswer{},
		}

		err := s.attempts.CreateActive(ctx, attempt)
		if err == nil {
			s.notifyStarted(ctx, attempt)
			view := quiz.View()
			return &StartedAttempt{Attempt: attempt, Quiz: &view}, nil
		}
		if !errors.Is(err, models.ErrActiveAttemptExists) {
			return nil, internal("Failed to start attempt", err)
		}

		existing, findErr := s.attempts.FindActive(ctx, requester.ID, quiz.ID)
		if findErr == nil {
			s.recordConflict("start")
			return nil, &Error{
				Kind:    KindConflict,
				Message: "An attempt for this quiz is already in progress",
				Attempt: existing,
				Err:     models.ErrActiveAttemptExists,
			}
		}
		if !errors.Is(findErr, models.ErrNotFound) {
			return nil, internal("Failed to load active attempt", findErr)
		}
	}

	s.recordConflict("start")
	return nil, conflict("An attempt for this quiz is already in progress")
}

func (s *AttemptService) SubmitAnswer(ctx context.Context, requester Requester, attemptID uuid.UUID, input SubmitAnswerInput) (*SubmittedAnswer, error) {
	if attemptID == uuid.Nil {
		return nil, invalid("Attempt ID is required")
	}
	if input.QuestionID == uuid.Nil {
		return nil, invalid("Question ID is required")
	}
	if input.TimeSpent < 0 {
		return nil, invalid("Time spent cannot be negative")
	}

	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, storeError(err, "Attempt not found")
	}
	if !attempt.IsOwnedBy(requester.ID) {
		return nil, forbidden("You can only answer your own attempts")
	}
	if attempt.Status != models.AttemptInProgress {
		s.recordConflict("answer")
		return nil, conflict("Attempt is no longer active")
	}

	quiz, err := s.quizzes.FindQuizByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}
	question, ok := quiz.Question(input.QuestionID)
	if !ok {
		return nil, notFound("Question not found in this quiz")
	}

	answer := &models.AttemptAnswer{
		AttemptID:      attempt.ID,
		QuestionID:     question.ID,
		SelectedAnswer: input.SelectedAnswer,
		IsCorrect:      scoring.EvaluateAnswer(question, input.SelectedAnswer),
		TimeSpent:      input.TimeSpent,
		AnsweredAt:     s.now().UTC(),
	}

	stored, err := s.attempts.UpsertAnswer(ctx, attempt.ID, answer)
	if err != nil {
		if errors.Is(err, models.ErrAttemptNotActive) {
			s.recordConflict("answer")
		}
		return nil, storeError(err, "Attempt not found")
	}
	return &SubmittedAnswer{Answer: stored, IsCorrect: stored.IsCorrect}, nil
}

func (s *AttemptService) CompleteAttempt(ctx context.Context, requester Requester, attemptID uuid.UUID) (*CompletedAttempt, error) {
	if attemptID == uuid.Nil {
		return nil, invalid("Attempt ID is required")
	}

	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, storeError(err, "Attempt not found")
	}
	if !attempt.IsOwnedBy(requester.ID) {
		return nil, forbidden("You can only complete your own attempts")
	}
	if attempt.Status != models.AttemptInProgress {
		s.recordConflict("complete")
		return nil, conflict("Attempt already completed")
	}

	quiz, err := s.quizzes.FindQuizByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, storeError(err, "Quiz not found")
	}

	var result scoring.Result
	var timeSpent int
	finished, err := s.attempts.Complete(ctx, attempt.ID, func(current *models.Attempt) {
		end := s.now().UTC()
		timeSpent = elapsedSeconds(current.StartTime, end)
		result = scoring.Score(quiz, current.Answers)

		current.Status = models.AttemptCompleted
		current.EndTime = &end
		current.TimeSpent = &timeSpent
		current.Score = &result.Score
		current.Percentage = &result.Percentage
		current.Passed = &result.Passed
	})
	if err != nil {
		if errors.Is(err, models.ErrAttemptNotActive) {
			s.recordConflict("complete")
			return nil, conflict("Attempt already completed")
		}
		return nil, storeError(err, "Attempt not found")
	}

	results := models.AttemptResults{
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.Score,
		Score:          result.Percentage,
		Passed:         result.Passed,
		TimeSpent:      timeSpent,
		PassPercentage: result.PassPercentage,
	}
	s.notifyCompleted(ctx, finished, results)
	return &CompletedAttempt{Attempt: finished, Results: results}, nil
}

func (s *AttemptService) GetAttempt(ctx context.Context, requester Requester, attemptID uuid.UUID) (*models.Attempt, error) {
	if attemptID == uuid.Nil {
		return nil, invalid("Attempt ID is required")
	}
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, storeError(err, "Attempt not found")
	}
	if !requester.IsAdmin && !attempt.IsOwnedBy(requester.ID) {
		return nil, forbidden("You are not allowed to view this attempt")
	}
	return attempt, nil
}

// ListAttempts pages through attempts. Non-admins only ever see their own;
// an explicit filter on somebody else is rejected rather than ignored.
func (s *AttemptService) ListAttempts(ctx context.Context, requester Requester, filter models.AttemptFilter) (*AttemptPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("Unknown attempt status")
	}
	if !requester.IsAdmin {
		if filter.UserID != nil && *filter.UserID != requester.ID {
			return nil, forbidden("You can only list your own attempts")
		}
		own := requester.ID
		filter.UserID = &own
	}
	filter.Page, filter.Limit = utils.NormalizePage(filter.Page, filter.Limit)

	attempts, total, err := s.attempts.List(ctx, filter)
	if err != nil {
		return nil, internal("Failed to list attempts", err)
	}
	return &AttemptPage{
		Attempts:   attempts,
		Pagination: utils.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Progress summarises a user's finished attempts for the profile page.
func (s *AttemptService) Progress(ctx context.Context, userID uuid.UUID) (models.AttemptStats, error) {
	stats, err := s.attempts.Stats(ctx, userID)
	if err != nil {
		return stats, internal("Failed to load progress", err)
	}
	return stats, nil
}

func (s *AttemptService) notifyStarted(ctx context.Context, attempt *models.Attempt) {
	for _, observer := range s.observers {
		observer.AttemptStarted(ctx, attempt)
	}
	log.Printf("✅ Attempt %s started by user %s on quiz %s", attempt.ID, attempt.UserID, attempt.QuizID)
}

func (s *AttemptService) notifyCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults) {
	for _, observer := range s.observers {
		observer.AttemptCompleted(ctx, attempt, results)
	}
	log.Printf("✅ Attempt %s completed: %d%% (passed=%v)", attempt.ID, results.Score, results.Passed)
}

func (s *AttemptService) recordConflict(operation string) {
	for _, observer := range s.observers {
		if recorder, ok := observer.(ConflictRecorder); ok {
			recorder.AttemptConflict(operation)
		}
	}
}

// elapsedSeconds rounds half up to whole seconds.
func elapsedSeconds(start, end time.Time) int {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Round(time.Second) / time.Second)
}
