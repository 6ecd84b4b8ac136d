package models

// Wire message types exchanged over the websocket channel.
const (
	WireTypeMessage = "message"
	WireTypeTyping  = "typing"
	WireTypeError   = "error"
	WireTypeSystem  = "system"
)

// WireMessage is the envelope framed onto the websocket. It is a
// transport-level structure only and is never persisted.
type WireMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// TextPayload carries the text of error and system frames.
type TextPayload struct {
	Message string `json:"message"`
}

// ErrorFrame builds an error WireMessage for a single connection.
func ErrorFrame(message string) WireMessage {
	return WireMessage{Type: WireTypeError, Payload: TextPayload{Message: message}}
}

// SystemFrame builds a system announcement WireMessage.
func SystemFrame(message string) WireMessage {
	return WireMessage{Type: WireTypeSystem, Payload: TextPayload{Message: message}}
}
