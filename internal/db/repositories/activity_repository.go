// activity_repository.go implements ActivityRepository, providing database
// queries for the append-only activity trail: insertion, the newest-first
// feed, and retention pruning.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/council-portal/council-portal/internal/db/models"
)

// ActivityRepository handles database operations for activity records
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateActivity appends an activity record. Records are immutable after
// insertion; there is no update path.
func (r *ActivityRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	activity.ID = uuid.New().String()
	activity.CreatedAt = time.Now()

	var metadataJSON []byte
	var err error
	if activity.Metadata != nil {
		metadataJSON, err = json.Marshal(activity.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
	}

	query := `
		INSERT INTO activities (id, user_id, user_name, action, resource_type,
			resource_id, resource_title, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		activity.ID,
		activity.UserID,
		activity.UserName,
		activity.Action,
		activity.ResourceType,
		activity.ResourceID,
		activity.ResourceTitle,
		metadataJSON,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// ListRecent retrieves the newest activity records, newest first.
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, user_id, user_name, action, resource_type, resource_id,
		       resource_title, metadata, created_at
		FROM activities
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		activity := &models.Activity{}
		var metadataJSON []byte
		err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activity.UserName,
			&activity.Action,
			&activity.ResourceType,
			&activity.ResourceID,
			&activity.ResourceTitle,
			&metadataJSON,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &activity.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
			}
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// DeleteOlderThan removes activity records created before cutoff and returns
// how many were pruned.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activities: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}
	return pruned, nil
}
