// activities.go implements the read-only activity feed. Records are written
// by the recorder on successful mutations; clients never create them.
package members

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/validation"
)

// ListActivities handles GET /members/activities, returning the most recent
// audit records newest-first. The limit is clamped to the configured feed
// maximum.
func (h *Handlers) ListActivities(c *gin.Context) {
	query, errs := validation.ValidateActivityQuery(c.Request.URL.Query(), h.cfg.Audit.FeedMaxLimit)
	if !errs.Ok() {
		invalidQuery(c, errs)
		return
	}

	activities, err := h.recorder.GetRecent(c.Request.Context(), query.Limit)
	if err != nil {
		internalError(c, "failed to list activities", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": activities})
}
