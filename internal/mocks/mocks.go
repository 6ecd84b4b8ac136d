package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
	"chat-relay/internal/store"
	"chat-relay/internal/webhook"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) CreateMessage(ctx context.Context, content, sender, sessionID string, metadata *string) (models.Message, error) {
	args := m.Called(ctx, content, sender, sessionID, metadata)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *StoreMock) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	args := m.Called(ctx, sessionID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ForwarderMock struct {
	mock.Mock
}

func (m *ForwarderMock) Forward(ctx context.Context, rawURL, content, sessionID string) ([]byte, error) {
	args := m.Called(ctx, rawURL, content, sessionID)
	var body []byte
	if val := args.Get(0); val != nil {
		body = val.([]byte)
	}
	return body, args.Error(1)
}

var _ store.Store = (*StoreMock)(nil)
var _ webhook.Forwarder = (*ForwarderMock)(nil)
