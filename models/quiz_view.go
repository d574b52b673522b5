package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizView is the read-only projection handed to quiz takers. It never
// carries the correct flag of an option.
type QuizView struct {
	ID               uuid.UUID      `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Category         string         `json:"category"`
	CoverImageURL    *string        `json:"cover_image_url"`
	PassPercentage   int            `json:"pass_percentage"`
	TimeLimitMinutes int            `json:"time_limit_minutes"`
	QuestionCount    int            `json:"question_count"`
	Questions        []QuestionView `json:"questions,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type QuestionView struct {
	ID       uuid.UUID    `json:"id"`
	Position int          `json:"position"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []OptionView `json:"options"`
}

type OptionView struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

func (q *Quiz) View() QuizView {
	view := q.Summary()
	view.Questions = make([]QuestionView, 0, len(q.Questions))
	for _, question := range q.Questions {
		if question == nil {
			continue
		}
		options := make([]OptionView, 0, len(question.Options))
		for _, option := range question.Options {
			if option != nil {
				options = append(options, OptionView{ID: option.ID, Text: option.Text})
			}
		}
		view.Questions = append(view.Questions, QuestionView{
			ID:       question.ID,
			Position: question.Position,
			Text:     question.Text,
			Type:     question.Type,
			Options:  options,
		})
	}
	return view
}

// Summary is View without the question bodies, used for catalogue listings.
func (q *Quiz) Summary() QuizView {
	return QuizView{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Category:         q.Category,
		CoverImageURL:    q.CoverImageURL,
		PassPercentage:   q.EffectivePassPercentage(),
		TimeLimitMinutes: q.TimeLimitMinutes,
		QuestionCount:    q.questionCount(),
		CreatedAt:        q.CreatedAt,
	}
}

func (q *Quiz) questionCount() int {
	count := 0
	for _, question := range q.Questions {
		if question != nil {
			count++
		}
	}
	return count
}
