// Package activity implements the portal's audit trail. Handlers call the
// Recorder after a successful mutation; the write is fire-and-forget so a
// broken audit store can never fail a user-facing request.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/council-portal/council-portal/internal/db/models"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/safego"
	"github.com/council-portal/council-portal/internal/telemetry"
)

// writeTimeout bounds the background insert so a stalled database cannot
// leak goroutines.
const writeTimeout = 5 * time.Second

// Recorder appends and reads activity records.
type Recorder struct {
	repo    *repositories.ActivityRepository
	enabled bool
}

// NewRecorder creates a recorder over the activity repository. A disabled
// recorder accepts Log calls and drops them.
func NewRecorder(repo *repositories.ActivityRepository, enabled bool) *Recorder {
	return &Recorder{repo: repo, enabled: enabled}
}

// Log appends an activity record asynchronously. It returns immediately; a
// failed insert is counted and logged server-side but never surfaces to the
// caller.
func (r *Recorder) Log(record *models.Activity) {
	if r == nil || !r.enabled {
		return
	}

	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.repo.CreateActivity(ctx, record); err != nil {
			telemetry.ActivityLogFailuresTotal.Inc()
			slog.Error("failed to record activity",
				"action", record.Action,
				"resource_type", record.ResourceType,
				"resource_id", record.ResourceID,
				"error", err)
		}
	})
}

// GetRecent returns the newest activity records, newest first.
func (r *Recorder) GetRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	return r.repo.ListRecent(ctx, limit)
}
