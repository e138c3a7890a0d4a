// Package jobs contains background workers that run on a schedule.
// The activity retention job prunes audit records older than the configured
// retention window. It is idempotent: re-running after a crash deletes the
// same rows a clean run would have.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/council-portal/council-portal/internal/db/repositories"
)

// sweepInterval is how often the pruner wakes up. Retention is measured in
// days, so a daily-ish cadence is plenty; the exact timing does not matter
// for correctness.
const sweepInterval = 12 * time.Hour

// ActivityRetentionJob periodically deletes activity records older than the
// retention window.
type ActivityRetentionJob struct {
	repo          *repositories.ActivityRepository
	retentionDays int
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewActivityRetentionJob creates a retention pruner. retentionDays must be
// positive; the caller skips construction entirely when pruning is disabled.
func NewActivityRetentionJob(repo *repositories.ActivityRepository, retentionDays int) *ActivityRetentionJob {
	return &ActivityRetentionJob{
		repo:          repo,
		retentionDays: retentionDays,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic pruning loop. An initial prune runs immediately
// so a long-stopped instance catches up on startup.
func (j *ActivityRetentionJob) Start() {
	slog.Info("starting activity retention job", "retention_days", j.retentionDays)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		j.prune()

		for {
			select {
			case <-ticker.C:
				j.prune()
			case <-j.stopCh:
				slog.Info("activity retention job stopped")
				return
			}
		}
	}()
}

// Stop stops the pruning loop and waits for an in-flight prune to finish.
func (j *ActivityRetentionJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
}

func (j *ActivityRetentionJob) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("activity retention prune failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("pruned old activity records", "deleted", deleted, "cutoff", cutoff)
	}
}
