// Package models - meeting.go defines the Meeting model for council and
// chapter meeting announcements.
package models

import "time"

// Meeting represents a scheduled council meeting
type Meeting struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          string    `json:"type"` // general, board, committee, special
	Location      *string   `json:"location,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	Attachments   []string  `json:"attachments"`
	CreatedBy     string    `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
