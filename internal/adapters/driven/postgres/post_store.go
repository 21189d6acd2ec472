package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// PostStore writes local feed posts and media rows.
type PostStore struct {
	db *DB
}

var _ driven.PostStore = (*PostStore)(nil)

func NewPostStore(db *DB) *PostStore {
	return &PostStore{db: db}
}

// CreatePost inserts the post and, when media is non-nil, its media
// row in one transaction. A failed media insert rolls back the post so
// the feed never shows a post missing its attachment.
func (s *PostStore) CreatePost(ctx context.Context, post *domain.Post, media *domain.Media) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO posts (id, author_id, content, created_at) VALUES ($1, $2, $3, $4)`,
			post.ID, post.AuthorID, post.Content, post.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}

		if media == nil {
			return nil
		}

		if media.ID == "" {
			media.ID = uuid.NewString()
		}
		if media.CreatedAt.IsZero() {
			media.CreatedAt = time.Now()
		}
		media.PostID = post.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO media (id, post_id, url, type, created_at) VALUES ($1, $2, $3, $4, $5)`,
			media.ID, media.PostID, media.URL, string(media.Type), media.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert media: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}
