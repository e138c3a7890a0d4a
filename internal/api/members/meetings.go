// meetings.go implements the council meeting announcement endpoints.
package members

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/db/models"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/validation"
)

// ListMeetings handles GET /members/meetings with optional type and
// date-range filters. Meetings are ordered by start time, soonest first.
func (h *Handlers) ListMeetings(c *gin.Context) {
	query, errs := validation.ValidateMeetingQuery(c.Request.URL.Query())
	if !errs.Ok() {
		invalidQuery(c, errs)
		return
	}

	filters := repositories.MeetingFilters{
		Type: query.Type,
		From: query.From,
		To:   query.To,
	}

	meetings, total, err := h.meetings.ListMeetings(c.Request.Context(), filters, query.Limit, query.Offset())
	if err != nil {
		internalError(c, "failed to list meetings", err)
		return
	}

	c.JSON(http.StatusOK, listEnvelope(meetings, total, query.Page, query.Limit))
}

// GetMeeting handles GET /members/meetings/:id.
func (h *Handlers) GetMeeting(c *gin.Context) {
	meeting, err := h.meetings.GetMeetingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c, "failed to get meeting", err)
		return
	}
	if meeting == nil {
		notFound(c, "Meeting not found")
		return
	}
	c.JSON(http.StatusOK, meeting)
}

// CreateMeeting handles POST /members/meetings. Creator identity is stamped
// from the verified token, never taken from the payload.
func (h *Handlers) CreateMeeting(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var in validation.MeetingCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": validation.Errors{"body: must be a JSON object"}})
		return
	}

	create, errs := validation.ValidateMeetingCreate(in)
	if !errs.Ok() {
		invalidBody(c, errs)
		return
	}

	meeting := &models.Meeting{
		Title:         create.Title,
		Description:   create.Description,
		Type:          create.Type,
		StartsAt:      create.StartsAt,
		Attachments:   create.Attachments,
		CreatedBy:     principal.ID,
		CreatedByName: principal.Name,
	}
	if create.Location != "" {
		meeting.Location = &create.Location
	}

	if err := h.meetings.CreateMeeting(c.Request.Context(), meeting); err != nil {
		internalError(c, "failed to create meeting", err)
		return
	}

	h.recorder.Log(&models.Activity{
		UserID:        principal.ID,
		UserName:      principal.Name,
		Action:        models.ActionMeetingCreated,
		ResourceType:  "meeting",
		ResourceID:    meeting.ID,
		ResourceTitle: meeting.Title,
		Metadata: map[string]any{
			"meetingType": meeting.Type,
			"startsAt":    meeting.StartsAt,
		},
	})

	c.JSON(http.StatusCreated, gin.H{"id": meeting.ID})
}
