// Package server defines the websocket envelope exchanged with browsers and
// utility helpers shared by client and transport logic.
package server

import (
	"encoding/json"
	"strings"
)

// Inbound event names.
const (
	EventJoin       = "join"
	EventMessage    = "message"
	EventTyping     = "typing"
	EventStopTyping = "stop_typing"
)

// Envelope is the JSON frame format in both directions.
type Envelope struct {
	Event string          `json:"event" validate:"required,oneof=join message typing stop_typing"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinData is the body of a join envelope.
type JoinData struct {
	Username string `json:"username"`
}

// outbound is the encoded form of a delivery.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
