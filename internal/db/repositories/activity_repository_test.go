package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/council-portal/council-portal/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var activityCols = []string{
	"id", "user_id", "user_name", "action", "resource_type",
	"resource_id", "resource_title", "metadata", "created_at",
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newActivityRepo(t *testing.T) (*ActivityRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewActivityRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// ---------------------------------------------------------------------------
// CreateActivity
// ---------------------------------------------------------------------------

func TestCreateActivity_Success(t *testing.T) {
	repo, mock := newActivityRepo(t)
	mock.ExpectExec("INSERT INTO activities").
		WillReturnResult(sqlmock.NewResult(1, 1))

	activity := &models.Activity{
		UserID:        "user-1",
		UserName:      "Pat Chair",
		Action:        models.ActionDocumentUploaded,
		ResourceType:  "document",
		ResourceID:    "doc-1",
		ResourceTitle: "Annual Budget",
	}
	if err := repo.CreateActivity(context.Background(), activity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activity.ID == "" {
		t.Error("ID not assigned")
	}
	if activity.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestCreateActivity_WithMetadata(t *testing.T) {
	repo, mock := newActivityRepo(t)
	mock.ExpectExec("INSERT INTO activities").
		WillReturnResult(sqlmock.NewResult(1, 1))

	activity := &models.Activity{
		UserID:       "admin-1",
		UserName:     "Pat Chair",
		Action:       models.ActionRequestApproved,
		ResourceType: "request",
		ResourceID:   "req-1",
		Metadata:     map[string]any{"previous_status": "pending"},
	}
	if err := repo.CreateActivity(context.Background(), activity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ListRecent
// ---------------------------------------------------------------------------

func TestListRecent_DecodesMetadata(t *testing.T) {
	repo, mock := newActivityRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM activities").
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow("act-2", "user-1", "Pat Chair", models.ActionMessageSent,
				"message", "msg-1", "Fall newsletter", nil, time.Now()).
			AddRow("act-1", "user-1", "Pat Chair", models.ActionRequestApproved,
				"request", "req-1", "Venue funding",
				[]byte(`{"previous_status":"pending"}`), time.Now().Add(-time.Hour)))

	activities, err := repo.ListRecent(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("len = %d, want 2", len(activities))
	}
	if activities[0].Metadata != nil {
		t.Errorf("metadata = %v, want nil for row without metadata", activities[0].Metadata)
	}
	if got := activities[1].Metadata["previous_status"]; got != "pending" {
		t.Errorf("metadata[previous_status] = %v, want pending", got)
	}
}

// ---------------------------------------------------------------------------
// DeleteOlderThan
// ---------------------------------------------------------------------------

func TestDeleteOlderThan_ReturnsPrunedCount(t *testing.T) {
	repo, mock := newActivityRepo(t)
	cutoff := time.Now().AddDate(0, 0, -90)
	mock.ExpectExec("DELETE FROM activities").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	pruned, err := repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pruned != 12 {
		t.Errorf("pruned = %d, want 12", pruned)
	}
}
