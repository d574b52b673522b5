package services

import (
	"context"
	"sync"
	"testing"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/google/uuid"
)

type fakeGamificationStore struct {
	mu      sync.Mutex
	xp      map[uuid.UUID]int
	granted map[uuid.UUID]map[string]bool
	badges  map[string]*models.Badge
}

func newFakeGamificationStore() *fakeGamificationStore {
	return &fakeGamificationStore{
		xp:      map[uuid.UUID]int{},
		granted: map[uuid.UUID]map[string]bool{},
		badges: map[string]*models.Badge{
			models.BadgeFirstQuiz:    {ID: uuid.New(), Code: models.BadgeFirstQuiz, Name: "First Quiz", XPReward: 20},
			models.BadgePerfectScore: {ID: uuid.New(), Code: models.BadgePerfectScore, Name: "Perfect Score", XPReward: 30},
		},
	}
}

func (s *fakeGamificationStore) AwardXP(ctx context.Context, userID uuid.UUID, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xp[userID] += amount
	return nil
}

func (s *fakeGamificationStore) GrantBadge(ctx context.Context, userID uuid.UUID, code string) (*models.Badge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	badge, ok := s.badges[code]
	if !ok {
		return nil, false, models.ErrNotFound
	}
	if s.granted[userID] == nil {
		s.granted[userID] = map[string]bool{}
	}
	if s.granted[userID][code] {
		return badge, false, nil
	}
	s.granted[userID][code] = true
	return badge, true, nil
}

func (s *fakeGamificationStore) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyUser(userID uuid.UUID, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func TestGamificationAwardsOnCompletion(t *testing.T) {
	quiz := publishedQuiz(2)
	store := newFakeGamificationStore()
	notifier := &recordingNotifier{}
	attempts := newMemoryAttemptStore()
	gamification := NewGamificationService(store, attempts, notifier)
	service := NewAttemptService(newMemoryQuizStore(quiz), attempts, gamification)

	user := Requester{ID: uuid.New()}
	ctx := context.Background()

	started, err := service.StartAttempt(ctx, user, quiz.ID)
	if err != nil {
		t.Fatalf("StartAttempt failed: %v", err)
	}
	for _, q := range quiz.Questions {
		service.SubmitAnswer(ctx, user, started.Attempt.ID, SubmitAnswerInput{QuestionID: q.ID, SelectedAnswer: correctOption(q)})
	}
	if _, err := service.CompleteAttempt(ctx, user, started.Attempt.ID); err != nil {
		t.Fatalf("CompleteAttempt failed: %v", err)
	}

	// 2 correct * 10 + 50 pass bonus + 20 first quiz + 30 perfect score
	if got := store.xp[user.ID]; got != 120 {
		t.Errorf("expected 120 XP, got %d", got)
	}
	if !store.granted[user.ID][models.BadgeFirstQuiz] || !store.granted[user.ID][models.BadgePerfectScore] {
		t.Errorf("expected first_quiz and perfect_score badges, got %v", store.granted[user.ID])
	}

	unlocked := 0
	for _, event := range notifier.events {
		if event == "badge_unlocked" {
			unlocked++
		}
	}
	if unlocked != 2 {
		t.Errorf("expected two badge notifications, got %v", notifier.events)
	}

	second, _ := service.StartAttempt(ctx, user, quiz.ID)
	if _, err := service.CompleteAttempt(ctx, user, second.Attempt.ID); err != nil {
		t.Fatalf("CompleteAttempt failed: %v", err)
	}
	if got := store.xp[user.ID]; got != 120 {
		t.Errorf("expected a failed empty attempt to award nothing, got %d total XP", got)
	}
}

func TestQualifyingBadges(t *testing.T) {
	testCases := []struct {
		name    string
		stats   models.AttemptStats
		results models.AttemptResults
		want    []string
	}{
		{"first completion", models.AttemptStats{Completed: 1}, models.AttemptResults{TotalQuestions: 4, Score: 50}, []string{models.BadgeFirstQuiz}},
		{"tenth pass with perfect score", models.AttemptStats{Completed: 12, Passed: 10}, models.AttemptResults{TotalQuestions: 4, Score: 100, Passed: true},
			[]string{models.BadgeFirstQuiz, models.BadgePerfectScore, models.BadgeQuizMaster}},
		{"empty quiz is never perfect", models.AttemptStats{Completed: 1}, models.AttemptResults{Score: 100}, []string{models.BadgeFirstQuiz}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := qualifyingBadges(tc.stats, tc.results)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}
