package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// NewRetentionScheduler sweeps expired job directories under rootDir once at start-up and
// then on every tick of schedule (a standard five-field cron expression).
func NewRetentionScheduler(rootDir string, ttl time.Duration, schedule string, logger *log.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	sweep := func() {
		removed, err := SweepJobs(rootDir, ttl, time.Now())
		if err != nil {
			logger.Error("Job sweep failed", "root", rootDir, "err", err)
			return
		}
		logger.Info("Swept expired jobs", "root", rootDir, "removed", removed, "ttl", ttl)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(sweep),
		gocron.WithName("job-retention"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}

// SweepJobs removes job directories under rootDir that were last modified before now-ttl
// and returns how many it removed. Only directories named by a job id are considered.
func SweepJobs(rootDir string, ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read root folder %s: %w", rootDir, err)
	}

	cutoff := now.Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to stat job %s: %w", entry.Name(), err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(rootDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove job %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
