package models

import "time"

// Sender values accepted by the message store.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message represents a persisted chat entry. Messages are append-only
// and never mutated after creation.
type Message struct {
	ID        int       `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	Sender    string    `db:"sender" json:"sender"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Metadata  *string   `db:"metadata" json:"metadata,omitempty"`
}
