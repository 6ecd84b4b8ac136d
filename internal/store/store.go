package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chat-relay/internal/models"
)

// ErrValidation marks schema violations on message creation.
var ErrValidation = errors.New("invalid message")

var (
	ErrEmptyContent  = fmt.Errorf("%w: content must not be empty", ErrValidation)
	ErrInvalidSender = fmt.Errorf("%w: sender must be user or bot", ErrValidation)
	ErrEmptySession  = fmt.Errorf("%w: session id must not be empty", ErrValidation)
)

// Store is an append-only per-session message log.
type Store interface {
	CreateMessage(ctx context.Context, content, sender, sessionID string, metadata *string) (models.Message, error)
	GetMessages(ctx context.Context, sessionID string) ([]models.Message, error)
}

func validate(content, sender, sessionID string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if sender != models.SenderUser && sender != models.SenderBot {
		return ErrInvalidSender
	}
	if sessionID == "" {
		return ErrEmptySession
	}
	return nil
}
