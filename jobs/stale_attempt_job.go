package jobs

import (
	"context"
	"log"
	"time"

	"github.com/anjiri1684/quizmaster/models"
)

type AttemptExpirer interface {
	ExpireStale(ctx context.Context, before time.Time, status models.AttemptStatus) (int64, error)
}

// StaleAttemptSweeper times out attempts left in progress for longer than
// After. This is the only place attempts reach the timeout status.
type StaleAttemptSweeper struct {
	Attempts AttemptExpirer
	After    time.Duration
	Now      func() time.Time
}

func (s *StaleAttemptSweeper) Run() {
	log.Println("Running job: SweepStaleAttempts...")

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().UTC().Add(-s.After)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := s.Attempts.ExpireStale(ctx, cutoff, models.AttemptTimeout)
	if err != nil {
		log.Printf("🔥 Error sweeping stale attempts: %v", err)
		return
	}
	if expired == 0 {
		log.Println("No stale attempts found.")
		return
	}
	log.Printf("Marked %d attempt(s) as timed out.", expired)
}
