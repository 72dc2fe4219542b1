package types

import "time"

// ProgressMessage represents a WebSocket progress update message
type ProgressMessage struct {
	SessionID string    `json:"sessionId"`
	Type      string    `json:"type"`              // "progress", "status", "complete", "error"
	Progress  float64   `json:"progress"`          // 0-100 percentage
	Status    string    `json:"status"`            // current session status
	Message   string    `json:"message,omitempty"` // stage text or error
	Timestamp time.Time `json:"timestamp"`
}
