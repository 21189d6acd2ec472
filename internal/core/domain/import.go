package domain

import "time"

// MediaType classifies imported media.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// SocialImport records one piece of remote content pulled into the
// local feed. The (ConnectionID, PlatformPostID) pair is unique; it is
// the dedup key consulted before importing an item a second time.
type SocialImport struct {
	ID             string    `json:"id"`
	ConnectionID   string    `json:"connection_id"`
	PlatformPostID string    `json:"platform_post_id"`

	// PostID is the resulting local post. Empty if post creation failed
	// but the import was still recorded for audit.
	PostID string `json:"post_id,omitempty"`

	MediaURL  string    `json:"media_url,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
	MediaType MediaType `json:"media_type"`
	CreatedAt time.Time `json:"created_at"`
}
