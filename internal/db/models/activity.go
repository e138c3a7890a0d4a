// Package models - activity.go defines the Activity model, an append-only
// record of who did what to which resource. Written once per successful
// mutation; never updated afterwards.
package models

import "time"

// Activity actions recorded by the portal.
const (
	ActionDocumentUploaded = "document_uploaded"
	ActionDocumentUpdated  = "document_updated"
	ActionDocumentDeleted  = "document_deleted"
	ActionMeetingCreated   = "meeting_created"
	ActionMessageSent      = "message_sent"
	ActionRequestSubmitted = "request_submitted"
	ActionRequestReviewed  = "request_reviewed"
	ActionRequestApproved  = "request_approved"
	ActionRequestDenied    = "request_denied"
)

// Activity represents one audit trail entry
type Activity struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	UserName      string         `json:"user_name" db:"user_name"`
	Action        string         `json:"action" db:"action"`
	ResourceType  string         `json:"resource_type" db:"resource_type"`
	ResourceID    string         `json:"resource_id" db:"resource_id"`
	ResourceTitle string         `json:"resource_title" db:"resource_title"`
	Metadata      map[string]any `json:"metadata,omitempty" db:"-"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}
