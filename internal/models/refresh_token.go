package models

import "time"

// RefreshToken is a long-lived, single-use credential exchanged for a new
// access/refresh pair. A token is usable only while it is not revoked and
// not past its expiry; rotation revokes it permanently.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `json:"isRevoked"`
	CreatedAt time.Time `json:"createdAt"`
}
