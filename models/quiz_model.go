package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPassPercentage = 70

type Quiz struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string      `gorm:"size:255;not null" json:"title"`
	Description      string      `gorm:"type:text" json:"description"`
	Category         string      `gorm:"size:100;index" json:"category"`
	CoverImageURL    *string     `gorm:"size:255" json:"cover_image_url"`
	PassPercentage   int         `gorm:"not null" json:"pass_percentage"`
	TimeLimitMinutes int         `gorm:"not null;default:0" json:"time_limit_minutes"`
	IsPublished      bool        `gorm:"not null;default:false;index" json:"is_published"`
	CreatedBy        uuid.UUID   `gorm:"type:uuid;not null;index" json:"created_by"`
	Questions        []*Question `gorm:"foreignKey:QuizID" json:"questions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// EffectivePassPercentage clamps the stored threshold into 0..100. Zero is a
// valid threshold that every attempt passes.
func (q *Quiz) EffectivePassPercentage() int {
	switch {
	case q.PassPercentage < 0:
		return 0
	case q.PassPercentage > 100:
		return 100
	}
	return q.PassPercentage
}

func (q *Quiz) Question(id uuid.UUID) (*Question, bool) {
	for _, question := range q.Questions {
		if question != nil && question.ID == id {
			return question, true
		}
	}
	return nil, false
}

func (q *Quiz) IsOwnedBy(userID uuid.UUID) bool {
	return q.CreatedBy == userID
}

type QuizFilter struct {
	PublishedOnly bool
	CreatedBy     *uuid.UUID
	Category      string
	Page          int
	Limit         int
}
