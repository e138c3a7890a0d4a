package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var messageCols = []string{
	"id", "subject", "body", "target_audience", "attachments",
	"sent_by", "sent_by_name", "created_at", "read",
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newMessageRepo(t *testing.T) (*MessageRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMessageRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func sampleMessageRow(read bool) *sqlmock.Rows {
	return sqlmock.NewRows(messageCols).
		AddRow("msg-1", "Fall newsletter", "The fall newsletter is out.",
			"all", pq.Array([]string{}), "admin-1", "Pat Chair", time.Now(), read)
}

// ---------------------------------------------------------------------------
// CreateMessage
// ---------------------------------------------------------------------------

func TestCreateMessage_Success(t *testing.T) {
	repo, mock := newMessageRepo(t)
	mock.ExpectQuery("INSERT INTO messages").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("msg-1", time.Now()))

	message := &models.Message{
		Subject:        "Fall newsletter",
		Body:           "The fall newsletter is out.",
		TargetAudience: "all",
		SentBy:         "admin-1",
		SentByName:     "Pat Chair",
	}
	if err := repo.CreateMessage(context.Background(), message); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if message.ID != "msg-1" {
		t.Errorf("ID = %q, want msg-1", message.ID)
	}
}

// ---------------------------------------------------------------------------
// GetMessageByID
// ---------------------------------------------------------------------------

func TestGetMessageByID_ProjectsReadFlag(t *testing.T) {
	repo, mock := newMessageRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM messages m").
		WithArgs("msg-1", "member-1").
		WillReturnRows(sampleMessageRow(true))

	message, err := repo.GetMessageByID(context.Background(), "msg-1", "member-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if message == nil {
		t.Fatal("message = nil, want row")
	}
	if !message.Read {
		t.Error("read = false, want projected true")
	}
}

func TestGetMessageByID_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newMessageRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM messages m").
		WillReturnRows(sqlmock.NewRows(messageCols))

	message, err := repo.GetMessageByID(context.Background(), "missing", "member-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if message != nil {
		t.Error("message != nil for missing id")
	}
}

// ---------------------------------------------------------------------------
// ListMessages
// ---------------------------------------------------------------------------

func TestListMessages_NoFilters(t *testing.T) {
	repo, mock := newMessageRepo(t)
	// A bare listing has no WHERE placeholders, so the count query must run
	// with no args at all.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages m WHERE 1=1$`).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM messages m").
		WithArgs("member-1", 10, 0).
		WillReturnRows(sampleMessageRow(false))

	filters := MessageFilters{UserID: "member-1"}
	messages, total, err := repo.ListMessages(context.Background(), filters, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(messages) != 1 {
		t.Errorf("total = %d len = %d, want 1/1", total, len(messages))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListMessages_UnreadFilter(t *testing.T) {
	repo, mock := newMessageRepo(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM messages m").
		WithArgs("member-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM messages m").
		WithArgs("member-1", "member-1", 10, 0).
		WillReturnRows(sampleMessageRow(false))

	unread := true
	filters := MessageFilters{UserID: "member-1", Unread: &unread}
	messages, total, err := repo.ListMessages(context.Background(), filters, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(messages) != 1 {
		t.Errorf("total = %d len = %d, want 1/1", total, len(messages))
	}
	if messages[0].Read {
		t.Error("unread listing returned a read message")
	}
}

func TestListMessages_AudienceFilterArg(t *testing.T) {
	repo, mock := newMessageRepo(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM messages m").
		WithArgs("board").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM messages m").
		WithArgs("board", "member-1", 10, 0).
		WillReturnRows(sqlmock.NewRows(messageCols))

	filters := MessageFilters{UserID: "member-1", Audience: "board"}
	if _, _, err := repo.ListMessages(context.Background(), filters, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// MarkRead
// ---------------------------------------------------------------------------

func TestMarkRead_InsertsReceipt(t *testing.T) {
	repo, mock := newMessageRepo(t)
	mock.ExpectExec("INSERT INTO message_reads").
		WithArgs("msg-1", "member-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkRead(context.Background(), "msg-1", "member-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkRead_SecondCallIsNoOp(t *testing.T) {
	repo, mock := newMessageRepo(t)
	// ON CONFLICT DO NOTHING: zero rows affected, still no error.
	mock.ExpectExec("INSERT INTO message_reads").
		WithArgs("msg-1", "member-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkRead(context.Background(), "msg-1", "member-1"); err != nil {
		t.Fatalf("re-mark returned error: %v", err)
	}
}
