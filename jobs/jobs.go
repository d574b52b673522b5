package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

const reminderSchedule = "*/5 * * * *"

// Schedule registers the sweeper on its configured schedule and the reminder
// every five minutes.
func Schedule(c *cron.Cron, sweepSpec string, sweeper *StaleAttemptSweeper, reminder *AttemptReminder) error {
	if _, err := c.AddJob(sweepSpec, sweeper); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", sweepSpec, err)
	}
	if _, err := c.AddJob(reminderSchedule, reminder); err != nil {
		return err
	}
	return nil
}
