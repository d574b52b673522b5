package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptTimeout    AttemptStatus = "timeout"
)

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptInProgress, AttemptCompleted, AttemptAbandoned, AttemptTimeout:
		return true
	}
	return false
}

func (s AttemptStatus) Terminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned || s == AttemptTimeout
}

// Attempt is one user's run through a quiz. The result fields stay nil until
// the attempt reaches a terminal status.
type Attempt struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	QuizID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Status     AttemptStatus    `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	Answers    []*AttemptAnswer `gorm:"foreignKey:AttemptID" json:"answers"`
	StartTime  time.Time        `gorm:"not null;index" json:"start_time"`
	EndTime    *time.Time       `json:"end_time,omitempty"`
	TimeSpent  *int             `json:"time_spent,omitempty"`
	Score      *int             `json:"score,omitempty"`
	Percentage *int             `json:"percentage,omitempty"`
	Passed     *bool            `json:"passed,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AttemptInProgress
	}
	return nil
}

func (a *Attempt) IsOwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

func (a *Attempt) Answer(questionID uuid.UUID) (*AttemptAnswer, bool) {
	for _, answer := range a.Answers {
		if answer.QuestionID == questionID {
			return answer, true
		}
	}
	return nil, false
}

// AttemptResults is the summary returned alongside a completed attempt.
// Score mirrors the percentage, as clients expect.
type AttemptResults struct {
	TotalQuestions int  `json:"total_questions"`
	CorrectAnswers int  `json:"correct_answers"`
	Score          int  `json:"score"`
	Passed         bool `json:"passed"`
	TimeSpent      int  `json:"time_spent"`
	PassPercentage int  `json:"pass_percentage"`
}

type AttemptFilter struct {
	UserID *uuid.UUID
	QuizID *uuid.UUID
	Status AttemptStatus
	Page   int
	Limit  int
}

type AttemptStats struct {
	Completed         int64   `json:"completed"`
	Passed            int64   `json:"passed"`
	Perfect           int64   `json:"perfect"`
	AveragePercentage float64 `json:"average_percentage"`
}
