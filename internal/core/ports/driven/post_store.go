package driven

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// PostStore creates local feed posts and media attachments. The feed
// subsystem owns these entities; sync only writes them.
type PostStore interface {
	// CreatePost inserts a post, together with its media attachment
	// when media is non-nil, and fills in the generated IDs. The post
	// and its media land atomically or not at all.
	CreatePost(ctx context.Context, post *domain.Post, media *domain.Media) error
}
