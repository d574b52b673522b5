package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Certificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AttemptID      uuid.UUID `gorm:"type:uuid;not null;unique" json:"attempt_id"`
	QuizID         uuid.UUID `gorm:"type:uuid;not null" json:"quiz_id"`
	QuizTitle      string    `gorm:"size:255;not null" json:"quiz_title"`
	Percentage     int       `gorm:"not null" json:"percentage"`
	IssuedAt       time.Time `gorm:"not null" json:"issued_at"`
	CertificateURL string    `gorm:"type:text;not null" json:"certificate_url"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
