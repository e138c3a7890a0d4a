// meeting_repository.go implements MeetingRepository, providing database
// queries for creating and listing council meetings with type and date-range
// filters.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

// MeetingRepository handles database operations for meetings
type MeetingRepository struct {
	db *sql.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// MeetingFilters contains filters for listing meetings. From and To are
// inclusive YYYY-MM-DD date-range bounds on starts_at.
type MeetingFilters struct {
	Type string
	From string
	To   string
}

const meetingColumns = `
	id, title, description, meeting_type, location, starts_at, attachments,
	created_by, created_by_name, created_at, updated_at
`

// CreateMeeting inserts a new meeting record
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	query := `
		INSERT INTO meetings (title, description, meeting_type, location,
			starts_at, attachments, created_by, created_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		meeting.Title,
		meeting.Description,
		meeting.Type,
		meeting.Location,
		meeting.StartsAt,
		pq.Array(meeting.Attachments),
		meeting.CreatedBy,
		meeting.CreatedByName,
	).Scan(&meeting.ID, &meeting.CreatedAt, &meeting.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	return nil
}

// GetMeetingByID retrieves a meeting by id
func (r *MeetingRepository) GetMeetingByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

	meeting, err := scanMeeting(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return meeting, nil
}

// ListMeetings retrieves meetings matching the filters ordered by start
// time, soonest first, along with the total count before pagination.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filters MeetingFilters, limit, offset int) ([]*models.Meeting, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.Type != "" {
		where += fmt.Sprintf(` AND meeting_type = $%d`, paramIndex)
		args = append(args, filters.Type)
		paramIndex++
	}
	if filters.From != "" {
		where += fmt.Sprintf(` AND starts_at >= $%d::date`, paramIndex)
		args = append(args, filters.From)
		paramIndex++
	}
	if filters.To != "" {
		// Exclusive upper bound on the following day keeps the To date itself
		// inside the range regardless of meeting time.
		where += fmt.Sprintf(` AND starts_at < $%d::date + INTERVAL '1 day'`, paramIndex)
		args = append(args, filters.To)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM meetings` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings` + where +
		fmt.Sprintf(` ORDER BY starts_at ASC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]*models.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate meetings: %w", err)
	}

	return meetings, total, nil
}

func scanMeeting(row scanner) (*models.Meeting, error) {
	meeting := &models.Meeting{}
	err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&meeting.Description,
		&meeting.Type,
		&meeting.Location,
		&meeting.StartsAt,
		pq.Array(&meeting.Attachments),
		&meeting.CreatedBy,
		&meeting.CreatedByName,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}
