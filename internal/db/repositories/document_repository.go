// document_repository.go implements DocumentRepository, providing database
// queries for portal document CRUD, filtered listing, soft deletion, and
// download counting.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

// DocumentRepository handles database operations for documents
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// DocumentFilters contains filters for listing documents
type DocumentFilters struct {
	Category   string
	Restricted *bool
	Search     string
	// IncludeRestricted widens the listing to restricted documents; set for
	// admin callers only.
	IncludeRestricted bool
}

const documentColumns = `
	id, title, description, category, tags, restricted, file_key, file_name,
	file_size, content_type, storage_backend, download_count, uploaded_by,
	uploaded_by_name, is_active, created_at, updated_at
`

// CreateDocument inserts a new document record
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (title, description, category, tags, restricted,
			file_key, file_name, file_size, content_type, storage_backend,
			uploaded_by, uploaded_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, download_count, is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		doc.Title,
		doc.Description,
		doc.Category,
		pq.Array(doc.Tags),
		doc.Restricted,
		doc.FileKey,
		doc.FileName,
		doc.FileSize,
		doc.ContentType,
		doc.StorageBackend,
		doc.UploadedBy,
		doc.UploadedByName,
	).Scan(&doc.ID, &doc.DownloadCount, &doc.IsActive, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetDocumentByID retrieves an active document by id. Soft-deleted documents
// are reported as absent.
func (r *DocumentRepository) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND is_active`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments retrieves active documents matching the filters, newest
// first, along with the total count before pagination.
func (r *DocumentRepository) ListDocuments(ctx context.Context, filters DocumentFilters, limit, offset int) ([]*models.Document, int, error) {
	where := ` WHERE is_active`
	args := make([]interface{}, 0)
	paramIndex := 1

	if !filters.IncludeRestricted {
		where += ` AND NOT restricted`
	}
	if filters.Category != "" {
		where += fmt.Sprintf(` AND category = $%d`, paramIndex)
		args = append(args, filters.Category)
		paramIndex++
	}
	if filters.Restricted != nil {
		where += fmt.Sprintf(` AND restricted = $%d`, paramIndex)
		args = append(args, *filters.Restricted)
		paramIndex++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, paramIndex, paramIndex)
		args = append(args, "%"+filters.Search+"%")
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM documents` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := `SELECT ` + documentColumns + ` FROM documents` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	documents := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return documents, total, nil
}

// UpdateDocument applies the non-nil fields of update to an active document
// and returns the updated row, or nil when the document does not exist.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, id string, update models.DocumentUpdate) (*models.Document, error) {
	set := `updated_at = NOW()`
	args := make([]interface{}, 0)
	paramIndex := 1

	if update.Title != nil {
		set += fmt.Sprintf(`, title = $%d`, paramIndex)
		args = append(args, *update.Title)
		paramIndex++
	}
	if update.Description != nil {
		set += fmt.Sprintf(`, description = $%d`, paramIndex)
		args = append(args, *update.Description)
		paramIndex++
	}
	if update.Category != nil {
		set += fmt.Sprintf(`, category = $%d`, paramIndex)
		args = append(args, *update.Category)
		paramIndex++
	}
	if update.Tags != nil {
		set += fmt.Sprintf(`, tags = $%d`, paramIndex)
		args = append(args, pq.Array(*update.Tags))
		paramIndex++
	}
	if update.Restricted != nil {
		set += fmt.Sprintf(`, restricted = $%d`, paramIndex)
		args = append(args, *update.Restricted)
		paramIndex++
	}

	query := `UPDATE documents SET ` + set +
		fmt.Sprintf(` WHERE id = $%d AND is_active RETURNING `, paramIndex) + documentColumns
	args = append(args, id)

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return doc, nil
}

// SoftDeleteDocument marks a document inactive. Returns false when no active
// document with the id exists.
func (r *DocumentRepository) SoftDeleteDocument(ctx context.Context, id string) (bool, error) {
	query := `UPDATE documents SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// IncrementDownloadCount bumps a document's download counter.
func (r *DocumentRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	query := `UPDATE documents SET download_count = download_count + 1 WHERE id = $1 AND is_active`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*models.Document, error) {
	doc := &models.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Description,
		&doc.Category,
		pq.Array(&doc.Tags),
		&doc.Restricted,
		&doc.FileKey,
		&doc.FileName,
		&doc.FileSize,
		&doc.ContentType,
		&doc.StorageBackend,
		&doc.DownloadCount,
		&doc.UploadedBy,
		&doc.UploadedByName,
		&doc.IsActive,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
