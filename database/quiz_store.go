package database

import (
	"context"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizStore struct {
	db *gorm.DB
}

func NewQuizStore(db *gorm.DB) *QuizStore {
	return &QuizStore{db: db}
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (s *QuizStore) FindQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions", orderByPosition).
		Preload("Questions.Options", orderByPosition).
		First(&quiz, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &quiz, nil
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(quiz).Error; err != nil {
			return err
		}
		return createQuestions(tx, quiz)
	})
}

// ReplaceQuiz overwrites the quiz fields and swaps in its full question set.
func (s *QuizStore) ReplaceQuiz(ctx context.Context, quiz *models.Quiz) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
			"title":              quiz.Title,
			"description":        quiz.Description,
			"category":           quiz.Category,
			"cover_image_url":    quiz.CoverImageURL,
			"pass_percentage":    quiz.PassPercentage,
			"time_limit_minutes": quiz.TimeLimitMinutes,
			"is_published":       quiz.IsPublished,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrNotFound
		}

		if err := deleteQuestions(tx, quiz.ID); err != nil {
			return err
		}
		return createQuestions(tx, quiz)
	})
}

func (s *QuizStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	result := s.db.WithContext(ctx).Model(&models.Quiz{}).Where("id = ?", id).Update("is_published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteQuestions(tx, id); err != nil {
			return err
		}
		result := tx.Delete(&models.Quiz{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func quizFilterScope(filter models.QuizFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.PublishedOnly {
			db = db.Where("is_published = ?", true)
		}
		if filter.CreatedBy != nil {
			db = db.Where("created_by = ?", *filter.CreatedBy)
		}
		if filter.Category != "" {
			db = db.Where("category = ?", filter.Category)
		}
		return db
	}
}

// ListQuizzes loads questions without options, enough for catalogue counts.
func (s *QuizStore) ListQuizzes(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, int64, error) {
	scope := quizFilterScope(filter)
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Quiz{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []models.Quiz
	err := s.db.WithContext(ctx).
		Scopes(scope).
		Preload("Questions", orderByPosition).
		Order("created_at DESC").
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func createQuestions(tx *gorm.DB, quiz *models.Quiz) error {
	for _, question := range quiz.Questions {
		question.QuizID = quiz.ID
		if err := tx.Omit(clause.Associations).Create(question).Error; err != nil {
			return err
		}
		for _, option := range question.Options {
			option.QuestionID = question.ID
		}
		if len(question.Options) > 0 {
			if err := tx.Create(&question.Options).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteQuestions(tx *gorm.DB, quizID uuid.UUID) error {
	questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.AnswerOption{}).Error; err != nil {
		return err
	}
	return tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error
}
