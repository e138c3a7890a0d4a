package members

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/storage/local"
)

var documentCols = []string{
	"id", "title", "description", "category", "tags", "restricted",
	"file_key", "file_name", "file_size", "content_type", "storage_backend",
	"download_count", "uploaded_by", "uploaded_by_name", "is_active",
	"created_at", "updated_at",
}

func documentRow(id string, restricted bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(documentCols).
		AddRow(id, "Annual Budget", "Budget for the coming year", "reports",
			pq.Array([]string{"budget"}), restricted,
			"documents/"+id+"/budget.pdf", "budget.pdf", int64(2048), "application/pdf",
			"s3", int64(3), "user-1", "Pat Chair", true, now, now)
}

// ---------------------------------------------------------------------------
// ListDocuments
// ---------------------------------------------------------------------------

func TestListDocuments_NonAdminExcludesRestricted(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents WHERE is_active AND NOT restricted`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE is_active AND NOT restricted`).
		WillReturnRows(documentRow("doc-1", false))

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "GET", "/members/documents", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["total"] != float64(1) || body["page"] != float64(1) || body["limit"] != float64(10) || body["totalPages"] != float64(1) {
		t.Errorf("envelope = %v, want total 1, page 1, limit 10, totalPages 1", body)
	}
	assertExpectations(t, h.mock)
}

func TestListDocuments_AdminSeesRestricted(t *testing.T) {
	h := newHarness(t)

	// No NOT-restricted clause for admin callers.
	h.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents WHERE is_active$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE is_active ORDER BY`).
		WillReturnRows(documentRow("doc-1", true))

	w := doJSON(h.router(asUser("admin-1", "Sam Admin", true)), "GET", "/members/documents", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	assertExpectations(t, h.mock)
}

func TestListDocuments_InvalidQuery(t *testing.T) {
	h := newHarness(t)

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "GET", "/members/documents?category=secret&restricted=maybe", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Invalid query parameters" {
		t.Errorf("error = %v, want Invalid query parameters", body["error"])
	}
	details, _ := body["details"].([]any)
	if len(details) != 2 {
		t.Errorf("details = %v, want 2 entries", details)
	}
}

// ---------------------------------------------------------------------------
// GetDocument
// ---------------------------------------------------------------------------

func TestGetDocument_NotFound(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentCols))

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "GET", "/members/documents/missing", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if decodeBody(t, w)["error"] != "Document not found" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGetDocument_RestrictedNonAdmin(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", true))

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "GET", "/members/documents/doc-1", "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if decodeBody(t, w)["error"] != "Admin access required" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGetDocument_RestrictedAdmin(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", true))

	w := doJSON(h.router(asUser("admin-1", "Sam Admin", true)), "GET", "/members/documents/doc-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// UploadDocument
// ---------------------------------------------------------------------------

func multipartUpload(t *testing.T, fields map[string]string, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(fileContent)); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, writer.FormDataContentType()
}

func TestUploadDocument_Success(t *testing.T) {
	h := newHarness(t)
	now := time.Now()

	h.mock.ExpectQuery("INSERT INTO documents").
		WillReturnRows(sqlmock.NewRows([]string{"id", "download_count", "is_active", "created_at", "updated_at"}).
			AddRow("doc-9", int64(0), true, now, now))

	body, contentType := multipartUpload(t, map[string]string{
		"title":       "Meeting Minutes March",
		"description": "Minutes from the March board meeting",
		"category":    "minutes",
	}, "minutes.pdf", "pdf bytes")

	req := httptest.NewRequest("POST", "/members/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.router(asUser("user-1", "Pat Member", false)).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["id"] != "doc-9" {
		t.Errorf("body = %s, want id doc-9", w.Body.String())
	}
	if len(h.store.uploads) != 1 || !strings.HasPrefix(h.store.uploads[0], "documents/") {
		t.Errorf("uploads = %v, want one documents/ key", h.store.uploads)
	}
	assertExpectations(t, h.mock)
}

func TestUploadDocument_RestrictedRequiresAdmin(t *testing.T) {
	h := newHarness(t)

	body, contentType := multipartUpload(t, map[string]string{
		"title":       "Board Compensation Review",
		"description": "Restricted board-only compensation material",
		"category":    "reports",
		"restricted":  "true",
	}, "comp.pdf", "pdf bytes")

	req := httptest.NewRequest("POST", "/members/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.router(asUser("user-1", "Pat Member", false)).ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
	if len(h.store.uploads) != 0 {
		t.Errorf("blob was stored before the admin gate: %v", h.store.uploads)
	}
}

func TestUploadDocument_ValidationListsAllFields(t *testing.T) {
	h := newHarness(t)

	body, contentType := multipartUpload(t, map[string]string{
		"title":       "ab",
		"description": "too short",
		"category":    "secret",
	}, "f.pdf", "x")

	req := httptest.NewRequest("POST", "/members/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.router(asUser("user-1", "Pat Member", false)).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["error"] != "Invalid request data" {
		t.Errorf("error = %v", resp["error"])
	}
	details, _ := resp["details"].([]any)
	if len(details) != 3 {
		t.Errorf("details = %v, want 3 entries", details)
	}
}

// ---------------------------------------------------------------------------
// UpdateDocument / DeleteDocument
// ---------------------------------------------------------------------------

func TestUpdateDocument_NotFound(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery("UPDATE documents").
		WillReturnRows(sqlmock.NewRows(documentCols))

	w := doJSON(h.router(asUser("admin-1", "Sam Admin", true)), "PUT", "/members/documents/missing",
		`{"title": "Renamed Document"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}

func TestDeleteDocument_SoftDeletes(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", false))
	h.mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(h.router(asUser("admin-1", "Sam Admin", true)), "DELETE", "/members/documents/doc-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	assertExpectations(t, h.mock)
}

// ---------------------------------------------------------------------------
// DownloadDocument
// ---------------------------------------------------------------------------

func TestDownloadDocument_SignedURL(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", false))
	h.mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "POST", "/members/documents/doc-1/download", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["downloadUrl"] != "https://signed.example/blob" {
		t.Errorf("downloadUrl = %v", body["downloadUrl"])
	}
	if body["fileName"] != "budget.pdf" {
		t.Errorf("fileName = %v", body["fileName"])
	}
	assertExpectations(t, h.mock)
}

func TestDownloadDocument_CounterFailureStillDownloads(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", false))
	h.mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1").
		WillReturnError(sqlmock.ErrCancelled)

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "POST", "/members/documents/doc-1/download", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite counter failure: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["downloadUrl"] != "https://signed.example/blob" {
		t.Errorf("downloadUrl = %v", body["downloadUrl"])
	}
	assertExpectations(t, h.mock)
}

func TestDownloadDocument_LocalStreamsViaPortal(t *testing.T) {
	h := newHarness(t)
	h.store.url = ""
	h.store.urlErr = local.ErrNoDirectURL

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", false))
	h.mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "POST", "/members/documents/doc-1/download", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["downloadUrl"]; got != "http://portal.test/members/documents/doc-1/file" {
		t.Errorf("downloadUrl = %v, want portal streaming endpoint", got)
	}
}

func TestServeDocumentFile_StreamsContent(t *testing.T) {
	h := newHarness(t)
	h.store.content = "the document bytes"

	h.mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = \$1 AND is_active`).
		WithArgs("doc-1").
		WillReturnRows(documentRow("doc-1", false))

	w := doJSON(h.router(asUser("user-1", "Pat Member", false)), "GET", "/members/documents/doc-1/file", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "the document bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "budget.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
