package database

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAttemptStore(db *gorm.DB) *AttemptStore {
	return &AttemptStore{db: db, now: time.Now}
}

func orderByAnsweredAt(db *gorm.DB) *gorm.DB {
	return db.Order("answered_at ASC")
}

// CreateActive relies on idx_attempts_active, so two racing inserts for the
// same user and quiz cannot both succeed.
func (s *AttemptStore) CreateActive(ctx context.Context, attempt *models.Attempt) error {
	attempt.Status = models.AttemptInProgress
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(attempt).Error
	if isDuplicateKey(err) {
		return models.ErrActiveAttemptExists
	}
	return err
}

func (s *AttemptStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error) {
	return findAttempt(s.db.WithContext(ctx), "id = ?", id)
}

func (s *AttemptStore) FindActive(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error) {
	return findAttempt(s.db.WithContext(ctx), "user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, models.AttemptInProgress)
}

func findAttempt(db *gorm.DB, query string, args ...interface{}) (*models.Attempt, error) {
	var attempt models.Attempt
	conds := append([]interface{}{query}, args...)
	if err := db.Preload("Answers", orderByAnsweredAt).First(&attempt, conds...).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if attempt.Answers == nil {
		attempt.Answers = []*models.AttemptAnswer{}
	}
	return &attempt, nil
}

// lockActive touches the attempt row while it is still in progress, which
// takes the row lock for the rest of the transaction.
func lockActive(tx *gorm.DB, attemptID uuid.UUID, now time.Time) error {
	result := tx.Model(&models.Attempt{}).
		Where("id = ? AND status = ?", attemptID, models.AttemptInProgress).
		UpdateColumn("updated_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Attempt{}).Where("id = ?", attemptID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.ErrNotFound
	}
	return models.ErrAttemptNotActive
}

func (s *AttemptStore) UpsertAnswer(ctx context.Context, attemptID uuid.UUID, answer *models.AttemptAnswer) (*models.AttemptAnswer, error) {
	var stored models.AttemptAnswer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActive(tx, attemptID, s.now().UTC()); err != nil {
			return err
		}

		row := *answer
		row.ID = uuid.New()
		row.AttemptID = attemptID
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_answer", "is_correct", "time_spent", "answered_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		return tx.Where("attempt_id = ? AND question_id = ?", attemptID, answer.QuestionID).First(&stored).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &stored, nil
}

func (s *AttemptStore) Complete(ctx context.Context, attemptID uuid.UUID, finalize func(*models.Attempt)) (*models.Attempt, error) {
	var finished *models.Attempt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()
		if err := lockActive(tx, attemptID, now); err != nil {
			return err
		}

		attempt, err := findAttempt(tx, "id = ?", attemptID)
		if err != nil {
			return err
		}
		finalize(attempt)
		if !attempt.Status.Terminal() {
			return errors.New("finalize must move the attempt to a terminal status")
		}

		result := tx.Model(&models.Attempt{}).
			Where("id = ? AND status = ?", attemptID, models.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":     attempt.Status,
				"end_time":   attempt.EndTime,
				"time_spent": attempt.TimeSpent,
				"score":      attempt.Score,
				"percentage": attempt.Percentage,
				"passed":     attempt.Passed,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrAttemptNotActive
		}
		attempt.UpdatedAt = now
		finished = attempt
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return finished, nil
}

func attemptFilterScope(filter models.AttemptFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.QuizID != nil {
			db = db.Where("quiz_id = ?", *filter.QuizID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}
}

func (s *AttemptStore) List(ctx context.Context, filter models.AttemptFilter) ([]models.Attempt, int64, error) {
	scope := attemptFilterScope(filter)
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Attempt{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []models.Attempt
	err := s.db.WithContext(ctx).
		Scopes(scope).
		Preload("Answers", orderByAnsweredAt).
		Order("start_time DESC").
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (s *AttemptStore) Stats(ctx context.Context, userID uuid.UUID) (models.AttemptStats, error) {
	var stats models.AttemptStats
	err := s.db.WithContext(ctx).Model(&models.Attempt{}).
		Select(`COUNT(*) AS completed,
			COALESCE(SUM(CASE WHEN passed = ? THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(SUM(CASE WHEN percentage = 100 THEN 1 ELSE 0 END), 0) AS perfect,
			COALESCE(AVG(percentage), 0) AS average_percentage`, true).
		Where("user_id = ? AND status = ?", userID, models.AttemptCompleted).
		Scan(&stats).Error
	return stats, err
}

// ExpireStale closes in-progress attempts started before the cutoff. Their
// result fields stay empty.
func (s *AttemptStore) ExpireStale(ctx context.Context, before time.Time, status models.AttemptStatus) (int64, error) {
	now := s.now().UTC()
	result := s.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("status = ? AND start_time < ?", models.AttemptInProgress, before).
		Updates(map[string]interface{}{
			"status":     status,
			"end_time":   now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (s *AttemptStore) ListInProgressStartedBetween(ctx context.Context, from, to time.Time) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := s.db.WithContext(ctx).
		Preload("Answers", orderByAnsweredAt).
		Where("status = ? AND start_time >= ? AND start_time < ?", models.AttemptInProgress, from, to).
		Order("start_time ASC").
		Find(&attempts).Error
	return attempts, err
}
