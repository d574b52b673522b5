package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BadgeFirstQuiz    = "first_quiz"
	BadgePerfectScore = "perfect_score"
	BadgeQuizMaster   = "quiz_master"
)

type Badge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"size:50;not null;unique" json:"code"`
	Name        string    `gorm:"size:255;not null;unique" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IconURL     string    `gorm:"size:255;not null" json:"icon_url"`
	XPReward    int       `gorm:"not null;default:0" json:"xp_reward"`
	CreatedAt   time.Time `json:"created_at"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserBadge is the join row behind User.Badges.
type UserBadge struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	BadgeID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	AwardedAt time.Time `gorm:"not null"`
}
