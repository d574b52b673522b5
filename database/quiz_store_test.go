package database

import (
	"context"
	"errors"
	"testing"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

func TestQuizStoreRoundTrip(t *testing.T) {
	store := NewQuizStore(newTestDB(t))
	ctx := context.Background()
	quiz := seedQuiz(t, store, 3)

	loaded, err := store.FindQuizByID(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("FindQuizByID failed: %v", err)
	}
	if len(loaded.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(loaded.Questions))
	}
	for i, question := range loaded.Questions {
		if question.ID != quiz.Questions[i].ID {
			t.Errorf("expected questions in position order")
		}
		if len(question.Options) != 2 || !question.Options[0].Correct || question.Options[1].Correct {
			t.Errorf("unexpected options %+v", question.Options)
		}
	}

	if _, err := store.FindQuizByID(ctx, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuizStoreReplaceAndDelete(t *testing.T) {
	store := NewQuizStore(newTestDB(t))
	ctx := context.Background()
	quiz := seedQuiz(t, store, 2)

	replacement := &models.Quiz{
		ID:             quiz.ID,
		Title:          "Lakes",
		PassPercentage: 80,
		Questions: []*models.Question{{
			ID:   uuid.New(),
			Text: "Deepest lake?",
			Options: []*models.AnswerOption{
				{ID: uuid.New(), Text: "Baikal", Correct: true},
				{ID: uuid.New(), Position: 1, Text: "Geneva"},
			},
		}},
	}
	if err := store.ReplaceQuiz(ctx, replacement); err != nil {
		t.Fatalf("ReplaceQuiz failed: %v", err)
	}

	loaded, _ := store.FindQuizByID(ctx, quiz.ID)
	if loaded.Title != "Lakes" || loaded.PassPercentage != 80 || loaded.IsPublished {
		t.Errorf("unexpected replaced quiz: %+v", loaded)
	}
	if len(loaded.Questions) != 1 || loaded.Questions[0].Text != "Deepest lake?" {
		t.Errorf("expected question set to be replaced, got %+v", loaded.Questions)
	}

	var orphanOptions int64
	store.db.Model(&models.AnswerOption{}).Where("question_id = ?", quiz.Questions[0].ID).Count(&orphanOptions)
	if orphanOptions != 0 {
		t.Errorf("expected old options to be removed, found %d", orphanOptions)
	}

	if err := store.ReplaceQuiz(ctx, &models.Quiz{ID: uuid.New(), Title: "Ghost"}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound replacing a missing quiz, got %v", err)
	}

	if err := store.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz failed: %v", err)
	}
	if _, err := store.FindQuizByID(ctx, quiz.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected deleted quiz to be gone, got %v", err)
	}
	if err := store.DeleteQuiz(ctx, quiz.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestQuizStoreList(t *testing.T) {
	store := NewQuizStore(newTestDB(t))
	ctx := context.Background()

	published := seedQuiz(t, store, 2)
	draft := seedQuiz(t, store, 1)
	if err := store.SetPublished(ctx, draft.ID, false); err != nil {
		t.Fatalf("SetPublished failed: %v", err)
	}

	quizzes, total, err := store.ListQuizzes(ctx, models.QuizFilter{PublishedOnly: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if total != 1 || len(quizzes) != 1 || quizzes[0].ID != published.ID {
		t.Errorf("expected only the published quiz, got %d", total)
	}
	if len(quizzes[0].Questions) != 2 {
		t.Errorf("expected questions to be preloaded for counts, got %d", len(quizzes[0].Questions))
	}

	author := draft.CreatedBy
	mine, total, _ := store.ListQuizzes(ctx, models.QuizFilter{CreatedBy: &author, Page: 1, Limit: 10})
	if total != 1 || mine[0].ID != draft.ID {
		t.Errorf("expected the author's draft, got %d results", total)
	}

	if err := store.SetPublished(ctx, uuid.New(), true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
