package services

import (
	"context"
	"errors"
	"log"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

const (
	xpPerCorrectAnswer    = 10
	xpPassBonus           = 50
	quizMasterPassesCount = 10
)

type GamificationStore interface {
	AwardXP(ctx context.Context, userID uuid.UUID, amount int) error
	// GrantBadge reports false when the user already holds the badge.
	GrantBadge(ctx context.Context, userID uuid.UUID, code string) (*models.Badge, bool, error)
	Leaderboard(ctx context.Context, limit int) ([]models.User, error)
}

// UserNotifier pushes a realtime event to every open connection of a user.
type UserNotifier interface {
	NotifyUser(userID uuid.UUID, event string, payload interface{})
}

type GamificationService struct {
	users    GamificationStore
	attempts AttemptStore
	notifier UserNotifier
}

func NewGamificationService(users GamificationStore, attempts AttemptStore, notifier UserNotifier) *GamificationService {
	return &GamificationService{users: users, attempts: attempts, notifier: notifier}
}

func (s *GamificationService) AttemptStarted(ctx context.Context, attempt *models.Attempt) {}

// AttemptCompleted awards XP for the finished attempt and unlocks any badge
// the user now qualifies for.
func (s *GamificationService) AttemptCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults) {
	xp := results.CorrectAnswers * xpPerCorrectAnswer
	if results.Passed {
		xp += xpPassBonus
	}
	if xp > 0 {
		if err := s.users.AwardXP(ctx, attempt.UserID, xp); err != nil {
			log.Printf("🔥 Failed to award %d XP to user %s: %v", xp, attempt.UserID, err)
			return
		}
		log.Printf("✅ Awarded %d XP to user %s.", xp, attempt.UserID)
	}

	stats, err := s.attempts.Stats(ctx, attempt.UserID)
	if err != nil {
		log.Printf("🔥 Failed to load stats for user %s: %v", attempt.UserID, err)
		return
	}

	for _, code := range qualifyingBadges(stats, results) {
		s.unlock(ctx, attempt.UserID, code)
	}

	if s.notifier != nil {
		s.notifier.NotifyUser(attempt.UserID, "xp_awarded", map[string]interface{}{
			"attempt_id": attempt.ID,
			"xp":         xp,
		})
	}
}

func (s *GamificationService) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	users, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return nil, internal("Failed to load leaderboard", err)
	}
	return users, nil
}

func (s *GamificationService) unlock(ctx context.Context, userID uuid.UUID, code string) {
	badge, granted, err := s.users.GrantBadge(ctx, userID, code)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("⚠️ Badge '%s' not found in database. Cannot award.", code)
		return
	}
	if err != nil {
		log.Printf("🔥 Failed to grant badge '%s' to user %s: %v", code, userID, err)
		return
	}
	if !granted {
		return
	}

	if badge.XPReward > 0 {
		if err := s.users.AwardXP(ctx, userID, badge.XPReward); err != nil {
			log.Printf("🔥 Failed to award badge XP to user %s: %v", userID, err)
		}
	}
	log.Printf("✅ User %s unlocked badge '%s'.", userID, badge.Name)

	if s.notifier != nil {
		s.notifier.NotifyUser(userID, "badge_unlocked", badge)
	}
}

func qualifyingBadges(stats models.AttemptStats, results models.AttemptResults) []string {
	var codes []string
	if stats.Completed >= 1 {
		codes = append(codes, models.BadgeFirstQuiz)
	}
	if results.TotalQuestions > 0 && results.Score == 100 {
		codes = append(codes, models.BadgePerfectScore)
	}
	if stats.Passed >= quizMasterPassesCount {
		codes = append(codes, models.BadgeQuizMaster)
	}
	return codes
}
