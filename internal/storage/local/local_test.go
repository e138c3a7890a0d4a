package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/council-portal/council-portal/internal/config"
)

// newTestStorage creates a LocalStorage backed by a temporary directory.
func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	cfg := &config.LocalStorageConfig{BasePath: t.TempDir()}
	s, err := New(cfg)
	if err != nil {
		t.Fatal("New:", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	subDir := filepath.Join(t.TempDir(), "a", "b", "c")
	cfg := &config.LocalStorageConfig{BasePath: subDir}
	_, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(subDir); os.IsNotExist(err) {
		t.Error("New() did not create base directory")
	}
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestUpload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "meeting minutes for march"
	result, err := s.Upload(ctx, "documents/minutes.txt", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if result.Path != "documents/minutes.txt" {
		t.Errorf("Path = %q, want documents/minutes.txt", result.Path)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", result.Size, len(content))
	}
	if len(result.Checksum) != 64 {
		t.Errorf("Checksum len = %d, want 64 (SHA256 hex)", len(result.Checksum))
	}

	onDisk, err := os.ReadFile(filepath.Join(s.basePath, "documents", "minutes.txt"))
	if err != nil {
		t.Fatalf("reading uploaded file: %v", err)
	}
	if string(onDisk) != content {
		t.Errorf("file content = %q, want %q", onDisk, content)
	}
}

func TestUpload_NestedPath(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Upload(context.Background(), "a/b/c/d.bin", bytes.NewReader([]byte{1, 2, 3}), 3)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.basePath, "a", "b", "c", "d.bin")); err != nil {
		t.Errorf("nested file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Download
// ---------------------------------------------------------------------------

func TestDownload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "agenda attachment"
	if _, err := s.Upload(ctx, "doc.txt", strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatal(err)
	}

	rc, err := s.Download(ctx, "doc.txt")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("Download() = %q, want %q", got, content)
	}
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Download(context.Background(), "missing.txt")
	if err == nil {
		t.Fatal("Download() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want a not-found error", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.Upload(ctx, "dir/gone.txt", strings.NewReader("x"), 1); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "dir/gone.txt"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	exists, err := s.Exists(ctx, "dir/gone.txt")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("file still exists after Delete()")
	}
}

func TestDelete_Missing(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Delete(context.Background(), "never-uploaded.txt"); err != nil {
		t.Errorf("Delete() of missing file returned error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetURL
// ---------------------------------------------------------------------------

func TestGetURL_NoDirectURL(t *testing.T) {
	s := newTestStorage(t)

	url, err := s.GetURL(context.Background(), "doc.txt", time.Minute)
	if !errors.Is(err, ErrNoDirectURL) {
		t.Errorf("GetURL() error = %v, want ErrNoDirectURL", err)
	}
	if url != "" {
		t.Errorf("GetURL() = %q, want empty string", url)
	}
}

// ---------------------------------------------------------------------------
// Exists / GetMetadata
// ---------------------------------------------------------------------------

func TestExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "doc.txt")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("Exists() = true before upload")
	}

	if _, err := s.Upload(ctx, "doc.txt", strings.NewReader("x"), 1); err != nil {
		t.Fatal(err)
	}

	exists, err = s.Exists(ctx, "doc.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("Exists() = false after upload")
	}
}

func TestGetMetadata(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "bylaws revision"
	uploaded, err := s.Upload(ctx, "bylaws.txt", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatal(err)
	}

	meta, err := s.GetMetadata(ctx, "bylaws.txt")
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(content))
	}
	if meta.Checksum != uploaded.Checksum {
		t.Errorf("Checksum = %q, want %q", meta.Checksum, uploaded.Checksum)
	}
	if meta.LastModified.IsZero() {
		t.Error("LastModified is zero")
	}
}

func TestGetMetadata_NotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetMetadata(context.Background(), "nope.txt"); err == nil {
		t.Fatal("GetMetadata() expected error for missing file")
	}
}
