package gateway

import (
	"context"
	"net/http"
	"net/url"

	"socialclient/internal/models"
)

type postsResponse struct {
	Posts *[]models.Post `json:"posts"`
}

// Feed returns the latest posts from every user.
func (c *Client) Feed(ctx context.Context) ([]models.Post, error) {
	return c.listPosts(ctx, "feed", url.Values{"action": {"feed"}})
}

// UserPosts returns one user's posts. Entries carry no author.
func (c *Client) UserPosts(ctx context.Context, userID int64) ([]models.Post, error) {
	query := url.Values{"action": {"user_posts"}, "user_id": {formatID(userID)}}
	return c.listPosts(ctx, "user_posts", query)
}

func (c *Client) listPosts(ctx context.Context, action string, query url.Values) ([]models.Post, error) {
	var resp postsResponse
	if err := c.get(ctx, GroupPosts, action, query, &resp); err != nil {
		return nil, err
	}
	if resp.Posts == nil {
		return nil, missingField(GroupPosts, action, "posts")
	}
	return nonNil(*resp.Posts), nil
}

// CreatePost publishes a post authored by userID.
func (c *Client) CreatePost(ctx context.Context, userID int64, content string) (*models.CreatedPost, error) {
	body := map[string]any{"action": "create", "user_id": userID, "content": content}
	var resp struct {
		Post *models.CreatedPost `json:"post"`
	}
	if err := c.send(ctx, http.MethodPost, GroupPosts, "create", body, &resp); err != nil {
		return nil, err
	}
	if resp.Post == nil {
		return nil, missingField(GroupPosts, "create", "post")
	}
	return resp.Post, nil
}

// LikePost likes a post. Liking twice succeeds with a server message.
func (c *Client) LikePost(ctx context.Context, userID, postID int64) (*models.ActionResult, error) {
	body := map[string]any{"action": "like", "user_id": userID, "post_id": postID}
	var resp models.ActionResult
	if err := c.send(ctx, http.MethodPost, GroupPosts, "like", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CommentPost adds a comment to a post.
func (c *Client) CommentPost(ctx context.Context, userID, postID int64, content string) (*models.CreatedComment, error) {
	body := map[string]any{"action": "comment", "user_id": userID, "post_id": postID, "content": content}
	var resp models.CreatedComment
	if err := c.send(ctx, http.MethodPost, GroupPosts, "comment", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
