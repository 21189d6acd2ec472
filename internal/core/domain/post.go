package domain

import "time"

// Post is a local feed post. The feed subsystem owns its full
// lifecycle; the sync service only creates them.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Media is a displayable attachment on a post.
type Media struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	URL       string    `json:"url"`
	Type      MediaType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
