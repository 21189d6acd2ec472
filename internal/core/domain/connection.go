package domain

import "time"

// SocialConnection is a durable link between a local user and one
// external platform identity. At most one connection exists per
// (user, platform) pair; writes upsert on that key.
type SocialConnection struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Platform       Platform  `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	Username       string    `json:"username,omitempty"`
	DisplayName    string    `json:"display_name,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`

	// AccessToken and RefreshToken hold the plaintext credentials while
	// in memory. Stores persist them only as encrypted blobs.
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`

	TokenExpiresAt time.Time  `json:"token_expires_at"`
	Scopes         []string   `json:"scopes,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TokenExpired reports whether the stored access token is past its expiry.
func (c *SocialConnection) TokenExpired() bool {
	return time.Now().After(c.TokenExpiresAt)
}

// ConnectionSummary is the token-free view exposed to clients.
type ConnectionSummary struct {
	ID             string     `json:"id"`
	Platform       Platform   `json:"platform"`
	PlatformUserID string     `json:"platform_user_id"`
	Username       string     `json:"username,omitempty"`
	DisplayName    string     `json:"display_name,omitempty"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToSummary strips token material from a connection.
func (c *SocialConnection) ToSummary() *ConnectionSummary {
	return &ConnectionSummary{
		ID:             c.ID,
		Platform:       c.Platform,
		PlatformUserID: c.PlatformUserID,
		Username:       c.Username,
		DisplayName:    c.DisplayName,
		ProfilePicture: c.ProfilePicture,
		LastSyncedAt:   c.LastSyncedAt,
		CreatedAt:      c.CreatedAt,
	}
}
