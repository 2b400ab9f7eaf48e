package models

// Post is a feed entry. Author is absent when listing a single user's posts.
type Post struct {
	ID        int64        `json:"id"`
	Content   string       `json:"content"`
	CreatedAt Timestamp    `json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"`
	Likes     int64        `json:"likes"`
	Comments  int64        `json:"comments"`
}

// CreatedPost is returned after creating a post.
type CreatedPost struct {
	ID        int64     `json:"id"`
	CreatedAt Timestamp `json:"created_at"`
}

// CreatedComment is returned after commenting on a post.
type CreatedComment struct {
	CommentID int64 `json:"comment_id"`
}
