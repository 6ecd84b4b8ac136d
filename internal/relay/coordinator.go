package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/store"
	"chat-relay/internal/webhook"
	"chat-relay/internal/ws"
)

// Config carries the coordinator's fallbacks. DefaultWebhookURL may be
// empty; clients can supply the URL per frame.
type Config struct {
	DefaultSessionID  string
	DefaultWebhookURL string
}

// Coordinator relays client messages: persist, broadcast, forward.
// Errors along the way go back to the originating connection only;
// they never abort the process or close the socket.
type Coordinator struct {
	store     store.Store
	forwarder webhook.Forwarder
	hub       *ws.Hub
	cfg       Config
}

// New builds a Coordinator.
func New(st store.Store, forwarder webhook.Forwarder, hub *ws.Hub, cfg Config) *Coordinator {
	return &Coordinator{store: st, forwarder: forwarder, hub: hub, cfg: cfg}
}

// clientFrame is the inbound shape of a message frame.
type clientFrame struct {
	Type    string `json:"type"`
	Payload struct {
		Content       string `json:"content"`
		SessionID     string `json:"sessionId"`
		N8nWebhookURL string `json:"n8nWebhookUrl"`
	} `json:"payload"`
}

// HandleClientFrame processes one inbound websocket frame. The sender
// is always recorded as "user" regardless of what the client claims.
func (c *Coordinator) HandleClientFrame(ctx context.Context, conn ws.Conn, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
		observability.IncWSEvent("decode_error")
		c.sendError(conn, "invalid message format")
		return
	}
	if frame.Type != models.WireTypeMessage {
		// Typing and unknown frames from clients carry nothing to relay.
		return
	}

	if frame.Payload.Content == "" {
		c.sendError(conn, "message content is required")
		return
	}

	sessionID := frame.Payload.SessionID
	if sessionID == "" {
		sessionID = c.cfg.DefaultSessionID
	}
	c.hub.Rebind(conn, sessionID)

	msg, err := c.store.CreateMessage(ctx, frame.Payload.Content, models.SenderUser, sessionID, nil)
	if err != nil {
		log.Printf("persist client message failed: %v", err)
		c.sendError(conn, "invalid message format")
		return
	}
	observability.IncMessage(models.SenderUser)

	// The user's own message reaches every view before the webhook
	// round trip starts.
	c.hub.Broadcast(sessionID, models.WireMessage{Type: models.WireTypeMessage, Payload: msg})

	webhookURL := frame.Payload.N8nWebhookURL
	if webhookURL == "" {
		webhookURL = c.cfg.DefaultWebhookURL
	}
	if webhookURL == "" {
		c.sendError(conn, "n8n webhook URL is required")
		return
	}

	c.hub.Broadcast(sessionID, models.WireMessage{Type: models.WireTypeTyping})

	if _, err := c.forwarder.Forward(ctx, webhookURL, frame.Payload.Content, sessionID); err != nil {
		log.Printf("webhook forward failed session=%s: %v", sessionID, err)
		c.sendError(conn, forwardErrorMessage(err))
	}
}

// HandleBotReply persists the webhook's asynchronous answer as a bot
// message and broadcasts it. No forwarding happens on this path.
func (c *Coordinator) HandleBotReply(ctx context.Context, content, sessionID string, metadata *string) (models.Message, error) {
	if sessionID == "" {
		sessionID = c.cfg.DefaultSessionID
	}

	msg, err := c.store.CreateMessage(ctx, content, models.SenderBot, sessionID, metadata)
	if err != nil {
		return models.Message{}, err
	}
	observability.IncMessage(models.SenderBot)

	c.hub.Broadcast(sessionID, models.WireMessage{Type: models.WireTypeMessage, Payload: msg})
	return msg, nil
}

// sendError answers only the originating connection; errors are never
// broadcast. The hub serializes the write against concurrent
// broadcasts to the same connection.
func (c *Coordinator) sendError(conn ws.Conn, message string) {
	if err := c.hub.SendTo(conn, models.ErrorFrame(message)); err != nil {
		log.Printf("websocket error write failed: %v", err)
	}
}

// forwardErrorMessage maps forwarder failures to user-facing text. An
// unreachable host reads differently from a rejecting server so the
// widget can hint at the right fix.
func forwardErrorMessage(err error) string {
	var fwdErr *webhook.ForwardError
	if !errors.As(err, &fwdErr) {
		return "failed to reach n8n webhook"
	}
	switch fwdErr.Kind {
	case webhook.KindInvalidURL:
		return "invalid n8n webhook URL"
	case webhook.KindTimeout:
		return "n8n webhook timed out"
	case webhook.KindRejected:
		return fmt.Sprintf("n8n webhook returned status %d", fwdErr.Status)
	default:
		return "could not reach n8n webhook, check the URL"
	}
}
