package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFreeText       QuestionType = "free_text"
)

type Question struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Position int             `gorm:"not null" json:"position"`
	Text     string          `gorm:"type:text;not null" json:"text"`
	Type     QuestionType    `gorm:"size:50;not null;default:'multiple_choice'" json:"type"`
	Options  []*AnswerOption `gorm:"foreignKey:QuestionID" json:"options"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Type == "" {
		q.Type = QuestionMultipleChoice
	}
	return nil
}

type AnswerOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Position   int       `gorm:"not null" json:"position"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Correct    bool      `gorm:"not null;default:false" json:"correct"`
}

func (o *AnswerOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
