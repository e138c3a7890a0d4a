// documents.go implements the council document endpoints: list, read,
// upload, update, soft delete, and download-URL issuance. Restricted
// documents are visible to admins only, at every entry point.
package members

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/council-portal/council-portal/internal/db/models"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/middleware"
	"github.com/council-portal/council-portal/internal/storage/local"
	"github.com/council-portal/council-portal/internal/telemetry"
	"github.com/council-portal/council-portal/internal/validation"
)

// maxDocumentUploadBytes bounds the multipart form size on upload.
const maxDocumentUploadBytes = 50 << 20

// ListDocuments handles GET /members/documents. Restricted documents never
// appear for non-admin callers regardless of the supplied filters.
func (h *Handlers) ListDocuments(c *gin.Context) {
	query, errs := validation.ValidateDocumentQuery(c.Request.URL.Query())
	if !errs.Ok() {
		invalidQuery(c, errs)
		return
	}

	filters := repositories.DocumentFilters{
		Category:          query.Category,
		Restricted:        query.Restricted,
		Search:            query.Search,
		IncludeRestricted: middleware.IsAdmin(c),
	}

	documents, total, err := h.documents.ListDocuments(c.Request.Context(), filters, query.Limit, query.Offset())
	if err != nil {
		internalError(c, "failed to list documents", err)
		return
	}

	c.JSON(http.StatusOK, listEnvelope(documents, total, query.Page, query.Limit))
}

// GetDocument handles GET /members/documents/:id.
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UploadDocument handles POST /members/documents: multipart upload storing
// the file blob and creating the document record. Only admins may mark an
// upload restricted.
func (h *Handlers) UploadDocument(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(maxDocumentUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse multipart form"})
		return
	}

	var in validation.DocumentUploadInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse multipart form"})
		return
	}

	upload, errs := validation.ValidateDocumentUpload(in)
	if !errs.Ok() {
		invalidBody(c, errs)
		return
	}

	if upload.Restricted && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid file upload"})
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	fileKey := fmt.Sprintf("documents/%s/%s", uuid.New().String(), fileName)

	result, err := h.store.Upload(c.Request.Context(), fileKey, file, header.Size)
	if err != nil {
		internalError(c, "failed to store document blob", err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := &models.Document{
		Title:          upload.Title,
		Description:    upload.Description,
		Category:       upload.Category,
		Tags:           upload.Tags,
		Restricted:     upload.Restricted,
		FileKey:        fileKey,
		FileName:       fileName,
		FileSize:       result.Size,
		ContentType:    contentType,
		StorageBackend: h.cfg.Storage.DefaultBackend,
		UploadedBy:     principal.ID,
		UploadedByName: principal.Name,
	}

	if err := h.documents.CreateDocument(c.Request.Context(), doc); err != nil {
		// The record failed but the blob landed; remove it so the store does
		// not accumulate orphans.
		_ = h.store.Delete(c.Request.Context(), fileKey)
		internalError(c, "failed to create document record", err)
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        models.ActionDocumentUploaded,
		ResourceType:  "document",
		ResourceID:    doc.ID,
		ResourceTitle: doc.Title,
		Metadata: map[string]any{
			"category": doc.Category,
			"fileSize": doc.FileSize,
			"checksum": result.Checksum,
		},
	})

	c.JSON(http.StatusCreated, gin.H{"id": doc.ID})
}

// UpdateDocument handles PUT /members/documents/:id (admin only). Absent
// fields keep their stored values.
func (h *Handlers) UpdateDocument(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var in validation.DocumentUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": validation.Errors{"body: must be a JSON object"}})
		return
	}

	update, errs := validation.ValidateDocumentUpdate(in)
	if !errs.Ok() {
		invalidBody(c, errs)
		return
	}

	modelUpdate := models.DocumentUpdate{
		Title:       update.Title,
		Description: update.Description,
		Category:    update.Category,
		Restricted:  update.Restricted,
	}
	if update.Tags != nil {
		modelUpdate.Tags = &update.Tags
	}

	doc, err := h.documents.UpdateDocument(c.Request.Context(), c.Param("id"), modelUpdate)
	if err != nil {
		internalError(c, "failed to update document", err)
		return
	}
	if doc == nil {
		notFound(c, "Document not found")
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        models.ActionDocumentUpdated,
		ResourceType:  "document",
		ResourceID:    doc.ID,
		ResourceTitle: doc.Title,
	})

	c.JSON(http.StatusOK, doc)
}

// DeleteDocument handles DELETE /members/documents/:id (admin only). The row
// is soft-deleted; the stored blob stays for the audit trail.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	id := c.Param("id")
	doc, err := h.documents.GetDocumentByID(c.Request.Context(), id)
	if err != nil {
		internalError(c, "failed to get document", err)
		return
	}
	if doc == nil {
		notFound(c, "Document not found")
		return
	}

	deleted, err := h.documents.SoftDeleteDocument(c.Request.Context(), id)
	if err != nil {
		internalError(c, "failed to delete document", err)
		return
	}
	if !deleted {
		notFound(c, "Document not found")
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        models.ActionDocumentDeleted,
		ResourceType:  "document",
		ResourceID:    id,
		ResourceTitle: doc.Title,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// DownloadDocument handles POST /members/documents/:id/download. It bumps
// the download counter and returns a time-limited URL. Local storage issues
// no direct URLs, so the URL points back at the streaming endpoint.
func (h *Handlers) DownloadDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	downloadURL, err := h.store.GetURL(c.Request.Context(), doc.FileKey, h.cfg.Storage.DownloadURLTTL)
	if err != nil {
		if !errors.Is(err, local.ErrNoDirectURL) {
			internalError(c, "failed to generate download url", err)
			return
		}
		downloadURL = fmt.Sprintf("%s/members/documents/%s/file", h.cfg.Server.BaseURL, doc.ID)
	}

	if err := h.documents.IncrementDownloadCount(c.Request.Context(), doc.ID); err != nil {
		// Counter drift is tolerable; the download itself must still work.
		slog.Warn("failed to increment download count", "document_id", doc.ID, "error", err)
	}
	telemetry.DocumentDownloadsTotal.WithLabelValues(doc.Category).Inc()

	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": downloadURL,
		"fileName":    doc.FileName,
	})
}

// ServeDocumentFile handles GET /members/documents/:id/file, streaming the
// blob for deployments on local storage where no signed URL exists.
func (h *Handlers) ServeDocumentFile(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	reader, err := h.store.Download(c.Request.Context(), doc.FileKey)
	if err != nil {
		internalError(c, "failed to open document blob", err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Header("Content-Type", doc.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are already out; nothing useful can be sent to the client.
		slog.Warn("document stream interrupted", "document_id", doc.ID, "error", err)
	}
}

// loadDocument fetches the addressed document and enforces the restricted
// gate. Writes the error response itself when the document is unavailable.
func (h *Handlers) loadDocument(c *gin.Context) (*models.Document, bool) {
	doc, err := h.documents.GetDocumentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c, "failed to get document", err)
		return nil, false
	}
	if doc == nil {
		notFound(c, "Document not found")
		return nil, false
	}
	if doc.Restricted && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return nil, false
	}
	return doc, true
}
