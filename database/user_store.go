package database

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore covers accounts, badges and certificates. These only ever live in
// the relational database.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if isDuplicateKey(err) {
		return models.ErrDuplicateEmail
	}
	return err
}

func (s *UserStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Badges").First(&user, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// FindUserByResetToken only matches tokens that have not expired yet.
func (s *UserStore) FindUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_token_expires_at > ?", token, now).
		First(&user).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (s *UserStore) ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	page, limit = utils.NormalizePage(page, limit)
	scope := func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		term := "%" + strings.ToLower(search) + "%"
		return db.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (s *UserStore) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *UserStore) AwardXP(ctx context.Context, userID uuid.UUID, amount int) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("xp", gorm.Expr("xp + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GrantBadge inserts the user_badges row unless it exists. The boolean is
// false when the user already held the badge.
func (s *UserStore) GrantBadge(ctx context.Context, userID uuid.UUID, code string) (*models.Badge, bool, error) {
	var badge models.Badge
	if err := s.db.WithContext(ctx).First(&badge, "code = ?", code).Error; err != nil {
		return nil, false, translateNotFound(err)
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserBadge{UserID: userID, BadgeID: badge.ID, AwardedAt: time.Now().UTC()})
	if result.Error != nil {
		return nil, false, result.Error
	}
	return &badge, result.RowsAffected == 1, nil
}

func (s *UserStore) UserBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.db.WithContext(ctx).
		Joins("JOIN user_badges ON user_badges.badge_id = badges.id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_at ASC").
		Find(&badges).Error
	return badges, err
}

func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("xp DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (s *UserStore) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&badges).Error
	return badges, err
}

func (s *UserStore) FindBadgeByID(ctx context.Context, id uuid.UUID) (*models.Badge, error) {
	var badge models.Badge
	if err := s.db.WithContext(ctx).First(&badge, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &badge, nil
}

func (s *UserStore) CreateBadge(ctx context.Context, badge *models.Badge) error {
	return s.db.WithContext(ctx).Create(badge).Error
}

func (s *UserStore) UpdateBadge(ctx context.Context, badge *models.Badge) error {
	return s.db.WithContext(ctx).Save(badge).Error
}

func (s *UserStore) DeleteBadge(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", id).Delete(&models.UserBadge{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Badge{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func (s *UserStore) FindCertificateByAttempt(ctx context.Context, attemptID uuid.UUID) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := s.db.WithContext(ctx).First(&certificate, "attempt_id = ?", attemptID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &certificate, nil
}

func (s *UserStore) CreateCertificate(ctx context.Context, certificate *models.Certificate) error {
	return s.db.WithContext(ctx).Create(certificate).Error
}

func (s *UserStore) ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error) {
	var certificates []models.Certificate
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at DESC").Find(&certificates).Error
	return certificates, err
}
