package store

import (
	"context"
	"sync"
	"time"

	"chat-relay/internal/models"
)

// MemoryStore keeps the message log in process memory. It is the
// default backend when no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int
	messages []models.Message
}

// NewMemoryStore creates an empty store. Ids start at 1 and are never
// reused.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// CreateMessage validates and appends a message, assigning the next id
// and the current timestamp.
func (s *MemoryStore) CreateMessage(ctx context.Context, content, sender, sessionID string, metadata *string) (models.Message, error) {
	if err := validate(content, sender, sessionID); err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := models.Message{
		ID:        s.nextID,
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Metadata:  copyMetadata(metadata),
	}
	s.nextID++
	s.messages = append(s.messages, msg)
	return msg, nil
}

// GetMessages returns the session's messages in creation order. An
// unknown session yields an empty slice.
func (s *MemoryStore) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]models.Message, 0)
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			msg.Metadata = copyMetadata(msg.Metadata)
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// copyMetadata keeps callers from mutating stored messages through the
// shared pointer.
func copyMetadata(metadata *string) *string {
	if metadata == nil {
		return nil
	}
	val := *metadata
	return &val
}

var _ Store = (*MemoryStore)(nil)
