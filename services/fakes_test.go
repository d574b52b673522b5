package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

type memoryQuizStore struct {
	mu      sync.Mutex
	quizzes map[uuid.UUID]*models.Quiz
}

func newMemoryQuizStore(quizzes ...*models.Quiz) *memoryQuizStore {
	store := &memoryQuizStore{quizzes: map[uuid.UUID]*models.Quiz{}}
	for _, quiz := range quizzes {
		store.quizzes[quiz.ID] = quiz
	}
	return store
}

func (s *memoryQuizStore) FindQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *quiz
	return &copied, nil
}

func (s *memoryQuizStore) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *quiz
	s.quizzes[quiz.ID] = &copied
	return nil
}

func (s *memoryQuizStore) ReplaceQuiz(ctx context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return models.ErrNotFound
	}
	copied := *quiz
	s.quizzes[quiz.ID] = &copied
	return nil
}

func (s *memoryQuizStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return models.ErrNotFound
	}
	quiz.IsPublished = published
	return nil
}

func (s *memoryQuizStore) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *memoryQuizStore) ListQuizzes(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Quiz
	for _, quiz := range s.quizzes {
		if filter.PublishedOnly && !quiz.IsPublished {
			continue
		}
		if filter.CreatedBy != nil && quiz.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Category != "" && quiz.Category != filter.Category {
			continue
		}
		matched = append(matched, *quiz)
	}
	return matched, int64(len(matched)), nil
}

// memoryAttemptStore holds a single lock around every operation, which is
// enough to make its conditional writes atomic.
type memoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*models.Attempt
}

func newMemoryAttemptStore() *memoryAttemptStore {
	return &memoryAttemptStore{attempts: map[uuid.UUID]*models.Attempt{}}
}

func cloneAttempt(a *models.Attempt) *models.Attempt {
	copied := *a
	copied.Answers = make([]*models.AttemptAnswer, len(a.Answers))
	for i, answer := range a.Answers {
		answerCopy := *answer
		copied.Answers[i] = &answerCopy
	}
	return &copied
}

func (s *memoryAttemptStore) CreateActive(ctx context.Context, attempt *models.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.UserID == attempt.UserID && existing.QuizID == attempt.QuizID && existing.Status == models.AttemptInProgress {
			return models.ErrActiveAttemptExists
		}
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *memoryAttemptStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *memoryAttemptStore) FindActive(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, attempt := range s.attempts {
		if attempt.UserID == userID && attempt.QuizID == quizID && attempt.Status == models.AttemptInProgress {
			return cloneAttempt(attempt), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memoryAttemptStore) UpsertAnswer(ctx context.Context, attemptID uuid.UUID, answer *models.AttemptAnswer) (*models.AttemptAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, models.ErrAttemptNotActive
	}
	stored := *answer
	if current, found := attempt.Answer(answer.QuestionID); found {
		stored.ID = current.ID
		*current = stored
	} else {
		stored.ID = uuid.New()
		attempt.Answers = append(attempt.Answers, &stored)
	}
	result := stored
	return &result, nil
}

func (s *memoryAttemptStore) Complete(ctx context.Context, attemptID uuid.UUID, finalize func(*models.Attempt)) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, models.ErrAttemptNotActive
	}
	working := cloneAttempt(attempt)
	finalize(working)
	s.attempts[attemptID] = working
	return cloneAttempt(working), nil
}

func (s *memoryAttemptStore) List(ctx context.Context, filter models.AttemptFilter) ([]models.Attempt, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Attempt
	for _, attempt := range s.attempts {
		if filter.UserID != nil && attempt.UserID != *filter.UserID {
			continue
		}
		if filter.QuizID != nil && attempt.QuizID != *filter.QuizID {
			continue
		}
		if filter.Status != "" && attempt.Status != filter.Status {
			continue
		}
		matched = append(matched, *cloneAttempt(attempt))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.After(matched[j].StartTime) })
	return matched, int64(len(matched)), nil
}

func (s *memoryAttemptStore) Stats(ctx context.Context, userID uuid.UUID) (models.AttemptStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.AttemptStats
	var sum int
	for _, attempt := range s.attempts {
		if attempt.UserID != userID || attempt.Status != models.AttemptCompleted {
			continue
		}
		stats.Completed++
		if attempt.Passed != nil && *attempt.Passed {
			stats.Passed++
		}
		if attempt.Percentage != nil {
			sum += *attempt.Percentage
			if *attempt.Percentage == 100 {
				stats.Perfect++
			}
		}
	}
	if stats.Completed > 0 {
		stats.AveragePercentage = float64(sum) / float64(stats.Completed)
	}
	return stats, nil
}

func (s *memoryAttemptStore) ExpireStale(ctx context.Context, before time.Time, status models.AttemptStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, attempt := range s.attempts {
		if attempt.Status == models.AttemptInProgress && attempt.StartTime.Before(before) {
			attempt.Status = status
			n++
		}
	}
	return n, nil
}

func (s *memoryAttemptStore) ListInProgressStartedBetween(ctx context.Context, from, to time.Time) ([]models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Attempt
	for _, attempt := range s.attempts {
		if attempt.Status == models.AttemptInProgress && !attempt.StartTime.Before(from) && attempt.StartTime.Before(to) {
			matched = append(matched, *cloneAttempt(attempt))
		}
	}
	return matched, nil
}

type recordingObserver struct {
	mu        sync.Mutex
	started   []uuid.UUID
	completed []models.AttemptResults
	conflicts []string
}

func (o *recordingObserver) AttemptStarted(ctx context.Context, attempt *models.Attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, attempt.ID)
}

func (o *recordingObserver) AttemptCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, results)
}

func (o *recordingObserver) AttemptConflict(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts = append(o.conflicts, operation)
}

// publishedQuiz has questionCount questions, each with one correct and one
// wrong option.
func publishedQuiz(questionCount int) *models.Quiz {
	quiz := &models.Quiz{ID: uuid.New(), Title: "Capitals", PassPercentage: 70, IsPublished: true, CreatedBy: uuid.New()}
	for i := 0; i < questionCount; i++ {
		question := &models.Question{ID: uuid.New(), QuizID: quiz.ID, Position: i, Text: "Question", Type: models.QuestionMultipleChoice}
		question.Options = []*models.AnswerOption{
			{ID: uuid.New(), QuestionID: question.ID, Text: "right", Correct: true},
			{ID: uuid.New(), QuestionID: question.ID, Text: "wrong"},
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func correctOption(q *models.Question) string { return q.Options[0].ID.String() }
func wrongOption(q *models.Question) string   { return q.Options[1].ID.String() }
