// Package models - member_request.go defines the MemberRequest model for
// requests members submit to the council (funding, event support, etc.).
package models

import "time"

// Request statuses. A request starts as pending and moves through the review
// workflow via the admin status-transition endpoint.
const (
	RequestStatusPending     = "pending"
	RequestStatusUnderReview = "under_review"
	RequestStatusApproved    = "approved"
	RequestStatusDenied      = "denied"
)

// MemberRequest represents a request submitted by a member
type MemberRequest struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            string     `json:"type"`     // funding, event_support, information, membership, other
	Priority        string     `json:"priority"` // low, medium, high, urgent
	Status          string     `json:"status"`
	Attachments     []string   `json:"attachments"`
	SubmittedBy     string     `json:"submitted_by"`
	SubmittedByName string     `json:"submitted_by_name"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`
	ReviewNotes     *string    `json:"review_notes,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
