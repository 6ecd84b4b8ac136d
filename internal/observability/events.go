package observability

// Routing identifiers for relay events published to the broker.
// Consumers bind queues on the websocket lifecycle stream.
const (
	WSEventStream     = "ws_events"
	WSEventRoutingKey = "ws_events.relay"
)

// EventEnvelope frames a relay event for the broker.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// NewWSEvent builds the envelope for a websocket lifecycle event
// (ws_connect, ws_disconnect, ws_error).
func NewWSEvent(name string, payload interface{}) EventEnvelope {
	return EventEnvelope{EventType: WSEventStream, EventName: name, Payload: payload}
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
