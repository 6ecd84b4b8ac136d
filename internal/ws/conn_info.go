package ws

import "time"

// ConnInfo describes a registered websocket connection. SessionID is
// updated by the hub when the client addresses a different session.
type ConnInfo struct {
	ConnID      string
	SessionID   string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
