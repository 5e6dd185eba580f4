// Package events defines the websocket message contract between the scanner
// server and connected browsers.
package events

import (
	"time"
)

// MessageType defines the type of a websocket message.
type MessageType string

const (
	// Connection messages
	MessageTypeConnection MessageType = "connection"
	MessageTypeError      MessageType = "error"

	// Merge lifecycle messages
	MessageTypeProgress      MessageType = "progress"
	MessageTypeStatus        MessageType = "status"
	MessageTypeMergeComplete MessageType = "merge:complete"
)

// Message is the envelope for every websocket frame the server sends.
type Message struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage wraps a payload in an envelope stamped with the current time.
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ConnectionPayload acknowledges a successful registration.
type ConnectionPayload struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// ProgressPayload reports one merge progress step.
type ProgressPayload struct {
	Message string `json:"message"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// StatusPayload reports a merge lifecycle transition.
type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorPayload reports a failure to connected clients.
type ErrorPayload struct {
	Message string `json:"message"`
}
