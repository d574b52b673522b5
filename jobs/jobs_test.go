package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/quizmaster/database"
	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type fakeAttempts struct {
	expireBefore time.Time
	expireStatus models.AttemptStatus
	expired      int64
	from, to     time.Time
	inProgress   []models.Attempt
	err          error
}

func (f *fakeAttempts) ExpireStale(ctx context.Context, before time.Time, status models.AttemptStatus) (int64, error) {
	f.expireBefore, f.expireStatus = before, status
	return f.expired, f.err
}

func (f *fakeAttempts) ListInProgressStartedBetween(ctx context.Context, from, to time.Time) ([]models.Attempt, error) {
	f.from, f.to = from, to
	return f.inProgress, f.err
}

type fakeDirectory struct {
	users   map[uuid.UUID]*models.User
	quizzes map[uuid.UUID]*models.Quiz
}

func (d *fakeDirectory) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (d *fakeDirectory) FindQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	if q, ok := d.quizzes[id]; ok {
		return q, nil
	}
	return nil, models.ErrNotFound
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, body: htmlContent})
	return nil
}

func TestSweeperExpiresAttemptsOlderThanThreshold(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := &fakeAttempts{expired: 3}
	sweeper := &StaleAttemptSweeper{Attempts: attempts, After: 24 * time.Hour, Now: func() time.Time { return now }}

	sweeper.Run()

	if want := now.Add(-24 * time.Hour); !attempts.expireBefore.Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, attempts.expireBefore)
	}
	if attempts.expireStatus != models.AttemptTimeout {
		t.Errorf("expected timeout status, got %q", attempts.expireStatus)
	}
}

func TestReminderEmailsOwnersOfUnfinishedAttempts(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: uuid.New(), FullName: "Ada Lovelace", Email: "ada@example.com"}
	quiz := &models.Quiz{ID: uuid.New(), Title: "Go Basics"}
	attempts := &fakeAttempts{inProgress: []models.Attempt{
		{ID: uuid.New(), UserID: user.ID, QuizID: quiz.ID, Status: models.AttemptInProgress},
		{ID: uuid.New(), UserID: uuid.New(), QuizID: quiz.ID, Status: models.AttemptInProgress},
	}}
	directory := &fakeDirectory{
		users:   map[uuid.UUID]*models.User{user.ID: user},
		quizzes: map[uuid.UUID]*models.Quiz{quiz.ID: quiz},
	}
	mailer := &fakeMailer{}

	reminder := &AttemptReminder{
		Attempts:    attempts,
		Users:       directory,
		Quizzes:     directory,
		Mailer:      mailer,
		FrontendURL: "https://quiz.example.com",
		Now:         func() time.Time { return now },
	}
	reminder.Run()

	if !attempts.from.Equal(now.Add(-65*time.Minute)) || !attempts.to.Equal(now.Add(-60*time.Minute)) {
		t.Errorf("unexpected window %v - %v", attempts.from, attempts.to)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one reminder for the known user, got %d", len(mailer.sent))
	}
	if mailer.sent[0].to != user.Email || mailer.sent[0].subject != "Finish your quiz: Go Basics" {
		t.Errorf("unexpected mail %+v", mailer.sent[0])
	}
}

func TestReminderSurvivesListingFailure(t *testing.T) {
	mailer := &fakeMailer{}
	reminder := &AttemptReminder{
		Attempts: &fakeAttempts{err: errors.New("connection refused")},
		Users:    &fakeDirectory{},
		Quizzes:  &fakeDirectory{},
		Mailer:   mailer,
	}
	reminder.Run()
	if len(mailer.sent) != 0 {
		t.Errorf("expected no mail on failure")
	}
}

func TestScheduleRejectsInvalidCronExpression(t *testing.T) {
	c := cron.New()
	err := Schedule(c, "not a schedule", &StaleAttemptSweeper{}, &AttemptReminder{})
	if err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}

	c = cron.New()
	if err := Schedule(c, "*/10 * * * *", &StaleAttemptSweeper{}, &AttemptReminder{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Entries()) != 2 {
		t.Errorf("expected two jobs, got %d", len(c.Entries()))
	}
}

func TestReminderCountsStoredAnswers(t *testing.T) {
	db, err := database.Connect("sqlite", filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	ctx := context.Background()
	users := database.NewUserStore(db)
	quizzes := database.NewQuizStore(db)
	attempts := database.NewAttemptStore(db)

	user := &models.User{FullName: "<b>Eve</b>", Email: "eve@example.com", Password: "hashed"}
	if err := users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	quiz := &models.Quiz{Title: "Tags & <script>", PassPercentage: 70, IsPublished: true, CreatedBy: uuid.New()}
	for i := 0; i < 3; i++ {
		quiz.Questions = append(quiz.Questions, &models.Question{
			Position: i,
			Text:     "Pick one",
			Type:     models.QuestionMultipleChoice,
			Options: []*models.AnswerOption{
				{Text: "right", Correct: true},
				{Text: "wrong", Position: 1},
			},
		})
	}
	if err := quizzes.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	now := time.Now().UTC()
	attempt := &models.Attempt{UserID: user.ID, QuizID: quiz.ID, StartTime: now.Add(-62 * time.Minute)}
	if err := attempts.CreateActive(ctx, attempt); err != nil {
		t.Fatalf("CreateActive failed: %v", err)
	}
	answer := &models.AttemptAnswer{QuestionID: quiz.Questions[0].ID, SelectedAnswer: quiz.Questions[0].Options[0].ID.String(), IsCorrect: true, AnsweredAt: now}
	if _, err := attempts.UpsertAnswer(ctx, attempt.ID, answer); err != nil {
		t.Fatalf("UpsertAnswer failed: %v", err)
	}

	mailer := &fakeMailer{}
	reminder := &AttemptReminder{
		Attempts:    attempts,
		Users:       users,
		Quizzes:     quizzes,
		Mailer:      mailer,
		FrontendURL: "https://quiz.example.com",
		Now:         func() time.Time { return now },
	}
	reminder.Run()

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one reminder, got %d", len(mailer.sent))
	}
	body := mailer.sent[0].body
	if !strings.Contains(body, "answered 1 of 3 questions") {
		t.Errorf("expected stored answers to be counted, got %q", body)
	}
	if strings.Contains(body, "<script>") || strings.Contains(body, "<b>Eve</b>") {
		t.Errorf("expected user supplied text to be escaped, got %q", body)
	}
	if !strings.Contains(body, "&lt;b&gt;Eve&lt;/b&gt;") {
		t.Errorf("expected escaped name in %q", body)
	}
	if !strings.Contains(body, "https://quiz.example.com/attempts/"+attempt.ID.String()) {
		t.Errorf("expected resume link in %q", body)
	}
}
