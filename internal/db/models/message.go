// Package models - message.go defines the Message model for internal member
// communication and its per-user read receipts.
package models

import "time"

// Message represents a broadcast message to a member audience
type Message struct {
	ID             string    `json:"id" db:"id"`
	Subject        string    `json:"subject" db:"subject"`
	Body           string    `json:"body" db:"body"`
	TargetAudience string    `json:"target_audience" db:"target_audience"`
	Attachments    []string  `json:"attachments" db:"-"`
	SentBy         string    `json:"sent_by" db:"sent_by"`
	SentByName     string    `json:"sent_by_name" db:"sent_by_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	// Read is a per-caller projection joined from message_reads; it is not a
	// column of the messages table.
	Read bool `json:"read" db:"read"`
}

// ReadReceipt marks that a user has read a message. At most one receipt
// exists per (message, user) pair; re-reading is a no-op.
type ReadReceipt struct {
	MessageID string    `json:"message_id" db:"message_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ReadAt    time.Time `json:"read_at" db:"read_at"`
}
