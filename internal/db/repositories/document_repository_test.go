package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var documentCols = []string{
	"id", "title", "description", "category", "tags", "restricted",
	"file_key", "file_name", "file_size", "content_type", "storage_backend",
	"download_count", "uploaded_by", "uploaded_by_name", "is_active",
	"created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newDocumentRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

func sampleDocumentRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(documentCols).
		AddRow("doc-1", "Annual Budget", "Budget for the coming year", "reports",
			pq.Array([]string{"budget", "2026"}), false,
			"documents/doc-1/budget.pdf", "budget.pdf", int64(2048), "application/pdf",
			"local", int64(3), "user-1", "Pat Chair", true, now, now)
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// CreateDocument
// ---------------------------------------------------------------------------

func TestCreateDocument_Success(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO documents").
		WillReturnRows(sqlmock.NewRows([]string{"id", "download_count", "is_active", "created_at", "updated_at"}).
			AddRow("doc-1", int64(0), true, now, now))

	doc := &models.Document{
		Title:          "Annual Budget",
		Description:    "Budget for the coming year",
		Category:       "reports",
		Tags:           []string{"budget"},
		FileKey:        "documents/doc-1/budget.pdf",
		FileName:       "budget.pdf",
		FileSize:       2048,
		ContentType:    "application/pdf",
		StorageBackend: "local",
		UploadedBy:     "user-1",
		UploadedByName: "Pat Chair",
	}
	if err := repo.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "doc-1" {
		t.Errorf("ID = %q, want doc-1", doc.ID)
	}
	if !doc.IsActive {
		t.Error("new document not active")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetDocumentByID
// ---------------------------------------------------------------------------

func TestGetDocumentByID_Found(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND is_active").
		WithArgs("doc-1").
		WillReturnRows(sampleDocumentRow())

	doc, err := repo.GetDocumentByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil {
		t.Fatal("document = nil, want row")
	}
	if doc.Title != "Annual Budget" || doc.DownloadCount != 3 {
		t.Errorf("unexpected document: %+v", doc)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", doc.Tags)
	}
}

func TestGetDocumentByID_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentCols))

	doc, err := repo.GetDocumentByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Errorf("document = %+v, want nil for missing id", doc)
	}
}

// ---------------------------------------------------------------------------
// ListDocuments
// ---------------------------------------------------------------------------

func TestListDocuments_ReturnsRowsAndTotal(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WillReturnRows(sampleDocumentRow())

	docs, total, err := repo.ListDocuments(context.Background(), DocumentFilters{IncludeRestricted: true}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(docs) != 1 {
		t.Errorf("len(docs) = %d, want 1", len(docs))
	}
}

func TestListDocuments_FilterArgsPassedThrough(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WithArgs("minutes", true, "%board%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("minutes", true, "%board%", 10, 0).
		WillReturnRows(sampleDocumentRow())

	filters := DocumentFilters{
		Category:          "minutes",
		Restricted:        boolPtr(true),
		Search:            "board",
		IncludeRestricted: true,
	}
	if _, _, err := repo.ListDocuments(context.Background(), filters, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateDocument
// ---------------------------------------------------------------------------

func TestUpdateDocument_PartialUpdate(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectQuery("UPDATE documents SET").
		WithArgs("New Title", "doc-1").
		WillReturnRows(sampleDocumentRow())

	doc, err := repo.UpdateDocument(context.Background(), "doc-1", models.DocumentUpdate{
		Title: strPtr("New Title"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil {
		t.Fatal("document = nil, want updated row")
	}
}

func TestUpdateDocument_MissingReturnsNil(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectQuery("UPDATE documents SET").
		WillReturnRows(sqlmock.NewRows(documentCols))

	doc, err := repo.UpdateDocument(context.Background(), "missing", models.DocumentUpdate{
		Title: strPtr("New Title"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Error("document != nil for missing id")
	}
}

// ---------------------------------------------------------------------------
// SoftDeleteDocument / IncrementDownloadCount
// ---------------------------------------------------------------------------

func TestSoftDeleteDocument_Deleted(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectExec("UPDATE documents SET is_active = FALSE").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.SoftDeleteDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("deleted = false, want true")
	}
}

func TestSoftDeleteDocument_AlreadyGone(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectExec("UPDATE documents SET is_active = FALSE").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.SoftDeleteDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("deleted = true for already-deleted document")
	}
}

func TestIncrementDownloadCount(t *testing.T) {
	repo, mock := newDocumentRepo(t)
	mock.ExpectExec("UPDATE documents SET download_count = download_count \\+ 1").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.IncrementDownloadCount(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
