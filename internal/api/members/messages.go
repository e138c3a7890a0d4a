// messages.go implements the internal member communication endpoints,
// including the idempotent per-user read receipt.
package members

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/db/models"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/validation"
)

// ListMessages handles GET /members/messages. Each row carries the calling
// user's read flag, projected from the receipt table.
func (h *Handlers) ListMessages(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	query, errs := validation.ValidateMessageQuery(c.Request.URL.Query())
	if !errs.Ok() {
		invalidQuery(c, errs)
		return
	}

	filters := repositories.MessageFilters{
		UserID:   principal.ID,
		Unread:   query.Unread,
		Audience: query.Audience,
	}

	messages, total, err := h.messages.ListMessages(c.Request.Context(), filters, query.Limit, query.Offset())
	if err != nil {
		internalError(c, "failed to list messages", err)
		return
	}

	c.JSON(http.StatusOK, listEnvelope(messages, total, query.Page, query.Limit))
}

// GetMessage handles GET /members/messages/:id, projecting the caller's
// read flag like the listing does.
func (h *Handlers) GetMessage(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	message, err := h.messages.GetMessageByID(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		internalError(c, "failed to get message", err)
		return
	}
	if message == nil {
		notFound(c, "Message not found")
		return
	}
	c.JSON(http.StatusOK, message)
}

// CreateMessage handles POST /members/messages. Sender identity is stamped
// from the verified token.
func (h *Handlers) CreateMessage(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var in validation.MessageCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": validation.Errors{"body: must be a JSON object"}})
		return
	}

	create, errs := validation.ValidateMessageCreate(in)
	if !errs.Ok() {
		invalidBody(c, errs)
		return
	}

	message := &models.Message{
		Subject:        create.Subject,
		Body:           create.Body,
		TargetAudience: create.TargetAudience,
		Attachments:    create.Attachments,
		SentBy:         principal.ID,
		SentByName:     principal.Name,
	}

	if err := h.messages.CreateMessage(c.Request.Context(), message); err != nil {
		internalError(c, "failed to create message", err)
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        models.ActionMessageSent,
		ResourceType:  "message",
		ResourceID:    message.ID,
		ResourceTitle: message.Subject,
		Metadata: map[string]any{
			"targetAudience": message.TargetAudience,
		},
	})

	c.JSON(http.StatusCreated, gin.H{"id": message.ID})
}

// MarkMessageRead handles POST /members/messages/:id/read. Re-marking an
// already-read message succeeds without creating a second receipt.
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	id := c.Param("id")
	exists, err := h.messages.MessageExists(c.Request.Context(), id)
	if err != nil {
		internalError(c, "failed to check message", err)
		return
	}
	if !exists {
		notFound(c, "Message not found")
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), id, principal.ID); err != nil {
		internalError(c, "failed to mark message read", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}
