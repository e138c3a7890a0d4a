// request_repository.go implements RequestRepository, providing database
// queries for member request submission, filtered listing, and the admin
// review status transition.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

// RequestRepository handles database operations for member requests
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// RequestFilters contains filters for listing member requests. SubmittedBy
// is always set for non-admin callers so members only see their own rows.
type RequestFilters struct {
	Status      string
	Type        string
	SubmittedBy string
}

const requestColumns = `
	id, title, description, request_type, priority, status, attachments,
	submitted_by, submitted_by_name, reviewed_by, review_notes, reviewed_at,
	created_at, updated_at
`

// CreateRequest inserts a new member request in pending status
func (r *RequestRepository) CreateRequest(ctx context.Context, request *models.MemberRequest) error {
	query := `
		INSERT INTO member_requests (title, description, request_type,
			priority, attachments, submitted_by, submitted_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		request.Title,
		request.Description,
		request.Type,
		request.Priority,
		pq.Array(request.Attachments),
		request.SubmittedBy,
		request.SubmittedByName,
	).Scan(&request.ID, &request.Status, &request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetRequestByID retrieves a member request by id
func (r *RequestRepository) GetRequestByID(ctx context.Context, id string) (*models.MemberRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM member_requests WHERE id = $1`

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

// ListRequests retrieves member requests matching the filters, newest first,
// along with the total count before pagination.
func (r *RequestRepository) ListRequests(ctx context.Context, filters RequestFilters, limit, offset int) ([]*models.MemberRequest, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, filters.Status)
		paramIndex++
	}
	if filters.Type != "" {
		where += fmt.Sprintf(` AND request_type = $%d`, paramIndex)
		args = append(args, filters.Type)
		paramIndex++
	}
	if filters.SubmittedBy != "" {
		where += fmt.Sprintf(` AND submitted_by = $%d`, paramIndex)
		args = append(args, filters.SubmittedBy)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM member_requests` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM member_requests` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.MemberRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate requests: %w", err)
	}

	return requests, total, nil
}

// UpdateRequestStatus moves a request to the given status, stamping the
// reviewer and review time. Returns the updated row, or nil when the request
// does not exist.
func (r *RequestRepository) UpdateRequestStatus(ctx context.Context, id, status, reviewNotes, reviewedBy string) (*models.MemberRequest, error) {
	query := `
		UPDATE member_requests
		SET status = $1,
		    review_notes = NULLIF($2, ''),
		    reviewed_by = $3,
		    reviewed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $4
		RETURNING ` + requestColumns

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, status, reviewNotes, reviewedBy, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}
	return request, nil
}

func scanRequest(row scanner) (*models.MemberRequest, error) {
	request := &models.MemberRequest{}
	err := row.Scan(
		&request.ID,
		&request.Title,
		&request.Description,
		&request.Type,
		&request.Priority,
		&request.Status,
		pq.Array(&request.Attachments),
		&request.SubmittedBy,
		&request.SubmittedByName,
		&request.ReviewedBy,
		&request.ReviewNotes,
		&request.ReviewedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return request, nil
}
