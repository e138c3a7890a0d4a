// Package models - document.go defines the Document model representing files
// shared with the membership, including restricted board-only material.
package models

import "time"

// Document represents a file shared through the members portal. Rows are
// soft-deleted: IsActive=false hides a document from every listing and
// lookup while preserving the audit trail and the stored blob reference.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	Restricted     bool      `json:"restricted"` // Visible to admins only when true
	FileKey        string    `json:"-"`          // Blob store key, never exposed to clients
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
	ContentType    string    `json:"content_type"`
	StorageBackend string    `json:"-"`
	DownloadCount  int64     `json:"download_count"`
	UploadedBy     string    `json:"uploaded_by"`
	UploadedByName string    `json:"uploaded_by_name"`
	IsActive       bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DocumentUpdate carries the mutable fields of a document. Nil means
// "leave unchanged".
type DocumentUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	Restricted  *bool
}
