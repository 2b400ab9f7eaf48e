package gateway

import (
	"context"
	"net/http"
	"net/url"

	"socialclient/internal/models"
)

// Chats lists the user's conversations, most recent first.
func (c *Client) Chats(ctx context.Context, userID int64) ([]models.Chat, error) {
	var resp struct {
		Chats *[]models.Chat `json:"chats"`
	}
	query := url.Values{"action": {"chats"}, "user_id": {formatID(userID)}}
	if err := c.get(ctx, GroupMessages, "chats", query, &resp); err != nil {
		return nil, err
	}
	if resp.Chats == nil {
		return nil, missingField(GroupMessages, "chats", "chats")
	}
	return nonNil(*resp.Chats), nil
}

// Messages lists a chat's messages in chronological order. The server marks the
// counterpart's messages read as a side effect, so this read is still safe to repeat.
func (c *Client) Messages(ctx context.Context, chatID, userID int64) ([]models.Message, error) {
	var resp struct {
		Messages *[]models.Message `json:"messages"`
	}
	query := url.Values{
		"action":  {"messages"},
		"chat_id": {formatID(chatID)},
		"user_id": {formatID(userID)},
	}
	if err := c.get(ctx, GroupMessages, "messages", query, &resp); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		return nil, missingField(GroupMessages, "messages", "messages")
	}
	return nonNil(*resp.Messages), nil
}

// SendMessage posts a message into a chat on behalf of userID.
func (c *Client) SendMessage(ctx context.Context, userID, chatID int64, content string) (*models.SentMessage, error) {
	body := map[string]any{"action": "send", "sender_id": userID, "chat_id": chatID, "content": content}
	var resp models.SentMessage
	if err := c.send(ctx, http.MethodPost, GroupMessages, "send", body, &resp); err != nil {
		return nil, err
	}
	if resp.MessageID <= 0 {
		return nil, missingField(GroupMessages, "send", "message_id")
	}
	return &resp, nil
}

// CreateChat returns the id of the chat between the two users, creating it if needed.
func (c *Client) CreateChat(ctx context.Context, userID, otherID int64) (int64, error) {
	body := map[string]any{"action": "create_chat", "user1_id": userID, "user2_id": otherID}
	var resp struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := c.send(ctx, http.MethodPost, GroupMessages, "create_chat", body, &resp); err != nil {
		return 0, err
	}
	if resp.ChatID <= 0 {
		return 0, missingField(GroupMessages, "create_chat", "chat_id")
	}
	return resp.ChatID, nil
}
