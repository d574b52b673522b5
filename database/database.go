package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	config "github.com/anjiri1684/quizmaster/configs"
	"github.com/anjiri1684/quizmaster/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the relational store named by cfg.DBDriver.
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// One writer at a time; transactions would otherwise hit SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	log.Println("✅ Database connected successfully")
	return db, nil
}

func ConnectDB(cfg *config.AppConfig) (*gorm.DB, error) {
	return Connect(cfg.DBDriver, cfg.DatabaseURL)
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.User{}, "Badges", &models.UserBadge{}); err != nil {
		return fmt.Errorf("failed to set up user badges: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Quiz{},
		&models.Question{},
		&models.AnswerOption{},
		&models.Attempt{},
		&models.AttemptAnswer{},
		&models.Certificate{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// At most one in-progress attempt per user and quiz.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_active ON attempts (user_id, quiz_id) WHERE status = 'in_progress'`).Error; err != nil {
		return fmt.Errorf("failed to create active attempt index: %w", err)
	}

	log.Println("✅ Database migration successful")
	return nil
}

func SeedAdmin(db *gorm.DB, email, password, fullName string) error {
	if email == "" || password == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if count > 0 {
		log.Println("Admin user already exists.")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		FullName: fullName,
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("✅ Admin user seeded successfully")
	return nil
}

var defaultBadges = []models.Badge{
	{Code: models.BadgeFirstQuiz, Name: "First Quiz", Description: "Completed your first quiz.", IconURL: "/badges/first-quiz.svg", XPReward: 20},
	{Code: models.BadgePerfectScore, Name: "Perfect Score", Description: "Answered every question of a quiz correctly.", IconURL: "/badges/perfect-score.svg", XPReward: 50},
	{Code: models.BadgeQuizMaster, Name: "Quiz Master", Description: "Passed ten quizzes.", IconURL: "/badges/quiz-master.svg", XPReward: 100},
}

// SeedBadges inserts the badges the gamification rules award, leaving any
// admin edits to existing rows untouched.
func SeedBadges(db *gorm.DB) error {
	for _, badge := range defaultBadges {
		var existing models.Badge
		err := db.Where("code = ?", badge.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check badge %s: %w", badge.Code, err)
		}
		seed := badge
		if err := db.Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", badge.Code, err)
		}
	}
	log.Println("✅ Badges seeded successfully")
	return nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}
