package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-relay/internal/observability"
)

// FrameHandler processes inbound client frames. Implemented by the
// relay coordinator.
type FrameHandler interface {
	HandleClientFrame(ctx context.Context, conn Conn, raw []byte)
}

// ChatWebSocketHandler upgrades client connections and feeds their
// frames into the relay.
type ChatWebSocketHandler struct {
	hub              *Hub
	relay            FrameHandler
	defaultSessionID string
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, relay FrameHandler, defaultSessionID string) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, relay: relay, defaultSessionID: defaultSessionID}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-relay/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = h.defaultSessionID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		SessionID:   sessionID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.Register(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, observability.WSEventRoutingKey,
		observability.NewWSEvent("ws_connect", wsEventPayload(info, "ws_connect", "")),
		observability.BuildHeaders(requestID, traceID))

	// Read loop; the deferred cleanup runs on close or transport error.
	go func() {
		var closeReason string
		defer func() {
			h.hub.Unregister(conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			_ = observability.PublishEvent(ctx, observability.WSEventRoutingKey,
				observability.NewWSEvent("ws_disconnect", wsEventPayload(info, "ws_disconnect", closeReason)),
				observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					_ = observability.PublishEvent(ctx, observability.WSEventRoutingKey,
						observability.NewWSEvent("ws_error", wsEventPayload(info, "ws_error", closeReason)),
						observability.BuildHeaders(requestID, traceID))
				}
				return
			}
			h.relay.HandleClientFrame(ctx, conn, raw)
		}
	}()
}

func wsEventPayload(info ConnInfo, event, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"session_id":  info.SessionID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"ip": info.IP,
		},
	}
}
