package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cycleTimeout bounds one scheduled fetch-and-store cycle. The remote page
// occasionally hangs behind Cloudflare; the next tick picks up the slack.
const cycleTimeout = 2 * time.Minute

type HourMinute struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Schedule registers the periodic silent ingest and the end-of-day report
// on the cron runner. intervalMinutes must divide the hour evenly to line
// up with the leaderboard's update cadence.
func Schedule(c *cron.Cron, service *Service, intervalMinutes int, endOfDay HourMinute) error {
	if intervalMinutes <= 0 || 60%intervalMinutes != 0 {
		return fmt.Errorf("report interval %d does not divide the hour", intervalMinutes)
	}

	_, err := c.AddFunc(fmt.Sprintf("*/%d * * * *", intervalMinutes), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()

		if err := service.Ingest(ctx); err != nil {
			slog.Error("scheduled ingest failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule ingest: %w", err)
	}

	_, err = c.AddFunc(fmt.Sprintf("%d %d * * *", endOfDay.Minute, endOfDay.Hour), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()

		if err := service.DailyReport(ctx); err != nil {
			slog.Error("daily report failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	return nil
}
