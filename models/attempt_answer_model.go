package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptAnswer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_answers_question" json:"attempt_id"`
	QuestionID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_answers_question" json:"question_id"`
	SelectedAnswer string    `gorm:"type:text;not null" json:"selected_answer"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	TimeSpent      int       `gorm:"not null;default:0" json:"time_spent"`
	AnsweredAt     time.Time `gorm:"not null" json:"answered_at"`
}

func (a *AttemptAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
