// Package members implements the authenticated members-portal API surface:
// documents, meetings, messages, requests, and the activity feed. Every
// handler runs behind the same pipeline, registered per route in the router:
// rate limit, authenticate, authorize, validate, execute, audit.
package members

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/activity"
	"github.com/council-portal/council-portal/internal/auth"
	"github.com/council-portal/council-portal/internal/config"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/middleware"
	"github.com/council-portal/council-portal/internal/storage"
	"github.com/council-portal/council-portal/internal/validation"
)

// Handlers bundles the dependencies shared by the members API handlers.
type Handlers struct {
	cfg       *config.Config
	documents *repositories.DocumentRepository
	meetings  *repositories.MeetingRepository
	messages  *repositories.MessageRepository
	requests  *repositories.RequestRepository
	store     storage.Storage
	recorder  *activity.Recorder
}

// NewHandlers wires the members API handlers.
func NewHandlers(
	cfg *config.Config,
	documents *repositories.DocumentRepository,
	meetings *repositories.MeetingRepository,
	messages *repositories.MessageRepository,
	requests *repositories.RequestRepository,
	store storage.Storage,
	recorder *activity.Recorder,
) *Handlers {
	return &Handlers{
		cfg:       cfg,
		documents: documents,
		meetings:  meetings,
		messages:  messages,
		requests:  requests,
		store:     store,
		recorder:  recorder,
	}
}

// listEnvelope is the paginated response shape shared by every list endpoint.
func listEnvelope(items interface{}, total, page, limit int) gin.H {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return gin.H{
		"items":      items,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages,
	}
}

// invalidQuery writes the 400 body for query parameter validation failures.
// Every violated field is reported, not just the first.
func invalidQuery(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid query parameters",
		"details": errs,
	})
}

// invalidBody writes the 400 body for request payload validation failures.
func invalidBody(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": errs,
	})
}

// notFound writes a 404 with a resource-specific message.
func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

// internalError logs the real failure with request context and returns the
// sanitized body. Raw downstream error messages never reach the client.
func internalError(c *gin.Context, what string, err error) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	principalID := ""
	if p, ok := middleware.GetPrincipal(c); ok {
		principalID = p.ID
	}
	slog.Error(what,
		"error", err,
		"path", c.FullPath(),
		"request_id", requestID,
		"principal_id", principalID,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// mustPrincipal returns the authenticated principal. The auth middleware
// guarantees it is present on every protected route; a missing principal
// means the route was registered without the auth gate and is treated as an
// internal error rather than silently proceeding unauthenticated.
func mustPrincipal(c *gin.Context) (*auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return p, true
}
