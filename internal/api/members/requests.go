// requests.go implements the member request endpoints: submission, listing
// with server-enforced ownership for non-admins, and the admin review
// transition.
package members

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/db/models"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/middleware"
	"github.com/council-portal/council-portal/internal/validation"
)

// ListRequests handles GET /members/requests. Non-admin callers only ever
// see their own submissions; a client-supplied submittedBy filter is
// overridden, never trusted.
func (h *Handlers) ListRequests(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	query, errs := validation.ValidateRequestQuery(c.Request.URL.Query())
	if !errs.Ok() {
		invalidQuery(c, errs)
		return
	}

	submittedBy := query.SubmittedBy
	if !middleware.IsAdmin(c) {
		submittedBy = principal.ID
	}

	filters := repositories.RequestFilters{
		Status:      query.Status,
		Type:        query.Type,
		SubmittedBy: submittedBy,
	}

	requests, total, err := h.requests.ListRequests(c.Request.Context(), filters, query.Limit, query.Offset())
	if err != nil {
		internalError(c, "failed to list requests", err)
		return
	}

	c.JSON(http.StatusOK, listEnvelope(requests, total, query.Page, query.Limit))
}

// GetRequest handles GET /members/requests/:id. A non-admin asking for
// someone else's request gets the same 404 as a missing id, so request
// existence is never leaked across members.
func (h *Handlers) GetRequest(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	request, err := h.requests.GetRequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c, "failed to get request", err)
		return
	}
	if request == nil || (!middleware.IsAdmin(c) && request.SubmittedBy != principal.ID) {
		notFound(c, "Request not found")
		return
	}
	c.JSON(http.StatusOK, request)
}

// CreateRequest handles POST /members/requests. Submitter identity, initial
// status, and timestamps are server-stamped.
func (h *Handlers) CreateRequest(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var in validation.RequestCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": validation.Errors{"body: must be a JSON object"}})
		return
	}

	create, errs := validation.ValidateRequestCreate(in)
	if !errs.Ok() {
		invalidBody(c, errs)
		return
	}

	request := &models.MemberRequest{
		Title:           create.Title,
		Description:     create.Description,
		Type:            create.Type,
		Priority:        create.Priority,
		Attachments:     create.Attachments,
		SubmittedBy:     principal.ID,
		SubmittedByName: principal.Name,
	}

	if err := h.requests.CreateRequest(c.Request.Context(), request); err != nil {
		internalError(c, "failed to create request", err)
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        models.ActionRequestSubmitted,
		ResourceType:  "request",
		ResourceID:    request.ID,
		ResourceTitle: request.Title,
		Metadata: map[string]any{
			"requestType": request.Type,
			"priority":    request.Priority,
		},
	})

	c.JSON(http.StatusCreated, gin.H{"id": request.ID})
}

// UpdateRequestStatus handles PUT /members/requests/:id/status (admin only).
// The target status must come from the closed review set; anything else is a
// validation failure that leaves the record unchanged.
func (h *Handlers) UpdateRequestStatus(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var in validation.RequestStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": validation.Errors{"body: must be a JSON object"}})
		return
	}

	update, errs := validation.ValidateRequestStatus(in)
	if !errs.Ok() {
		invalidBody(c, errs)
		return
	}

	request, err := h.requests.UpdateRequestStatus(c.Request.Context(), c.Param("id"), update.Status, update.ReviewNotes, principal.ID)
	if err != nil {
		internalError(c, "failed to update request status", err)
		return
	}
	if request == nil {
		notFound(c, "Request not found")
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        reviewAction(update.Status),
		ResourceType:  "request",
		ResourceID:    request.ID,
		ResourceTitle: request.Title,
		Metadata: map[string]any{
			"status": update.Status,
		},
	})

	c.JSON(http.StatusOK, request)
}

// reviewAction maps a review status to its audit action. Approvals and
// denials get their own actions; everything else is a generic review.
func reviewAction(status string) string {
	switch status {
	case models.RequestStatusApproved:
		return models.ActionRequestApproved
	case models.RequestStatusDenied:
		return models.ActionRequestDenied
	default:
		return models.ActionRequestReviewed
	}
}
