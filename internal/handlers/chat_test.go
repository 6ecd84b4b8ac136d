package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
	"chat-relay/internal/store"
	"chat-relay/internal/ws"
)

func setupChatRouter(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	hub := ws.NewHub(false)
	coordinator := relay.New(st, new(mocks.ForwarderMock), hub, relay.Config{DefaultSessionID: "default"})
	handler := NewChatHandler(st, coordinator, "default")

	r := gin.New()
	r.POST("/api/chat/webhook", handler.PostWebhookCallback)
	r.GET("/api/chat/messages", handler.GetMessages)
	return r, st
}

func TestPostWebhookCallbackSuccess(t *testing.T) {
	router, st := setupChatRouter(t)

	body := bytes.NewBufferString(`{"chatResponse":"Hello back","sessionId":"s1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/webhook", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, "Hello back", msg.Content)
	assert.Equal(t, models.SenderBot, msg.Sender)
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, 1, msg.ID)

	stored, err := st.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestPostWebhookCallbackWithMetadata(t *testing.T) {
	router, _ := setupChatRouter(t)

	body := bytes.NewBufferString(`{"chatResponse":"ok","sessionId":"s1","metadata":"{\"executionId\":\"42\"}"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/webhook", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	require.NotNil(t, msg.Metadata)
	assert.JSONEq(t, `{"executionId":"42"}`, *msg.Metadata)
}

func TestPostWebhookCallbackDefaultSession(t *testing.T) {
	router, st := setupChatRouter(t)

	body := bytes.NewBufferString(`{"chatResponse":"Hello back"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/webhook", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := st.GetMessages(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestPostWebhookCallbackEmptyResponse(t *testing.T) {
	router, st := setupChatRouter(t)

	body := bytes.NewBufferString(`{"sessionId":"s1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/webhook", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err := st.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPostWebhookCallbackBadJSON(t *testing.T) {
	router, _ := setupChatRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/webhook", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessagesOrderedAndScoped(t *testing.T) {
	router, st := setupChatRouter(t)
	ctx := context.Background()

	_, err := st.CreateMessage(ctx, "first", models.SenderUser, "s1", nil)
	require.NoError(t, err)
	_, err = st.CreateMessage(ctx, "other", models.SenderUser, "s2", nil)
	require.NoError(t, err)
	_, err = st.CreateMessage(ctx, "second", models.SenderBot, "s1", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/messages?sessionId=s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	for _, msg := range msgs {
		assert.Equal(t, "s1", msg.SessionID)
	}
}

func TestGetMessagesDefaultSession(t *testing.T) {
	router, st := setupChatRouter(t)

	_, err := st.CreateMessage(context.Background(), "hi", models.SenderUser, "default", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msgs))
	require.Len(t, msgs, 1)
}

func TestGetMessagesEmptySessionReturnsEmptyArray(t *testing.T) {
	router, _ := setupChatRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/messages?sessionId=nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
