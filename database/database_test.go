package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect("sqlite", filepath.Join(t.TempDir(), "quizmaster.db"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedQuiz(t *testing.T, store *QuizStore, questions int) *models.Quiz {
	t.Helper()
	quiz := &models.Quiz{ID: uuid.New(), Title: "Rivers", PassPercentage: 70, IsPublished: true, CreatedBy: uuid.New()}
	for i := 0; i < questions; i++ {
		question := &models.Question{ID: uuid.New(), Position: i, Text: "Longest river?", Type: models.QuestionMultipleChoice}
		question.Options = []*models.AnswerOption{
			{ID: uuid.New(), Position: 0, Text: "Nile", Correct: true},
			{ID: uuid.New(), Position: 1, Text: "Thames"},
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	if err := store.CreateQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}
	return quiz
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSeeds(t *testing.T) {
	db := newTestDB(t)

	if err := SeedAdmin(db, "Admin@Example.com", "s3cret-pass", "Admin"); err != nil {
		t.Fatalf("SeedAdmin failed: %v", err)
	}
	if err := SeedAdmin(db, "admin@example.com", "s3cret-pass", "Admin"); err != nil {
		t.Fatalf("second SeedAdmin failed: %v", err)
	}
	users := NewUserStore(db)
	admin, err := users.FindUserByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("expected seeded admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("expected admin role, got %s", admin.Role)
	}

	if err := SeedBadges(db); err != nil {
		t.Fatalf("SeedBadges failed: %v", err)
	}
	if err := SeedBadges(db); err != nil {
		t.Fatalf("second SeedBadges failed: %v", err)
	}
	badges, _ := users.ListBadges(context.Background())
	if len(badges) != len(defaultBadges) {
		t.Errorf("expected %d badges, got %d", len(defaultBadges), len(badges))
	}
}
