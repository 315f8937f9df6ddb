package models

import "time"

// UserDevice is a registered push target. TokenHash dedupes repeated
// registrations of the same device token.
type UserDevice struct {
	UserID      string    `json:"user_id"`
	Platform    string    `json:"platform"` // "android" | "ios"
	TokenHash   string    `json:"token_hash"`
	EndpointARN string    `json:"endpoint_arn"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}
