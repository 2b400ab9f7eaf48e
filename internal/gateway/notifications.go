package gateway

import (
	"context"
	"net/http"
	"net/url"

	"socialclient/internal/models"
)

// Notifications returns the user's most recent notifications.
func (c *Client) Notifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	var resp struct {
		Notifications *[]models.Notification `json:"notifications"`
	}
	query := url.Values{"user_id": {formatID(userID)}}
	if err := c.get(ctx, GroupNotifications, "list", query, &resp); err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		return nil, missingField(GroupNotifications, "list", "notifications")
	}
	return nonNil(*resp.Notifications), nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	body := map[string]any{"action": "mark_read", "notification_id": notificationID}
	return c.send(ctx, http.MethodPost, GroupNotifications, "mark_read", body, nil)
}

// MarkAllNotificationsRead marks every notification of userID as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	body := map[string]any{"action": "mark_all_read", "user_id": userID}
	return c.send(ctx, http.MethodPost, GroupNotifications, "mark_all_read", body, nil)
}
