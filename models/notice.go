package models

import "time"

// Notice is a user-visible message pushed over the realtime stream.
type Notice struct {
	Type      string    `json:"type"` // "warning" | "info"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
