package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

var meetingCols = []string{
	"id", "title", "description", "meeting_type", "location", "starts_at",
	"attachments", "created_by", "created_by_name", "created_at", "updated_at",
}

func newMeetingRepo(t *testing.T) (*MeetingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMeetingRepository(db), mock
}

func sampleMeetingRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(meetingCols).
		AddRow("mtg-1", "Board meeting", "Quarterly board meeting", "board",
			strPtr("Community hall"), now.Add(72*time.Hour), pq.Array([]string{}),
			"admin-1", "Pat Chair", now, now)
}

// ---------------------------------------------------------------------------
// CreateMeeting
// ---------------------------------------------------------------------------

func TestCreateMeeting_Success(t *testing.T) {
	repo, mock := newMeetingRepo(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO meetings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("mtg-1", now, now))

	meeting := &models.Meeting{
		Title:         "Board meeting",
		Description:   "Quarterly board meeting",
		Type:          "board",
		StartsAt:      now.Add(72 * time.Hour),
		CreatedBy:     "admin-1",
		CreatedByName: "Pat Chair",
	}
	if err := repo.CreateMeeting(context.Background(), meeting); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meeting.ID != "mtg-1" {
		t.Errorf("ID = %q, want mtg-1", meeting.ID)
	}
}

// ---------------------------------------------------------------------------
// ListMeetings
// ---------------------------------------------------------------------------

func TestListMeetings_DateRangeArgs(t *testing.T) {
	repo, mock := newMeetingRepo(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM meetings").
		WithArgs("board", "2026-09-01", "2026-09-30").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM meetings").
		WithArgs("board", "2026-09-01", "2026-09-30", 10, 0).
		WillReturnRows(sampleMeetingRow())

	filters := MeetingFilters{Type: "board", From: "2026-09-01", To: "2026-09-30"}
	meetings, total, err := repo.ListMeetings(context.Background(), filters, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(meetings) != 1 {
		t.Errorf("total = %d len = %d, want 1/1", total, len(meetings))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetMeetingByID_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newMeetingRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM meetings").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(meetingCols))

	meeting, err := repo.GetMeetingByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meeting != nil {
		t.Error("meeting != nil for missing id")
	}
}
