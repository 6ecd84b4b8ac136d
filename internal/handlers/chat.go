package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/relay"
	"chat-relay/internal/store"
)

// ChatHandler serves the webhook callback and message history routes.
type ChatHandler struct {
	store            store.Store
	relay            *relay.Coordinator
	defaultSessionID string
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(st store.Store, coordinator *relay.Coordinator, defaultSessionID string) *ChatHandler {
	return &ChatHandler{store: st, relay: coordinator, defaultSessionID: defaultSessionID}
}

// PostWebhookCallback receives the external webhook's asynchronous
// reply, persists it as a bot message and broadcasts it.
func (h *ChatHandler) PostWebhookCallback(c *gin.Context) {
	var req struct {
		ChatResponse string  `json:"chatResponse"`
		SessionID    string  `json:"sessionId"`
		Metadata     *string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message format"})
		return
	}

	msg, err := h.relay.HandleBotReply(c.Request.Context(), req.ChatResponse, req.SessionID, req.Metadata)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message format"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// GetMessages returns the session's messages in creation order.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = h.defaultSessionID
	}

	msgs, err := h.store.GetMessages(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, msgs)
}
