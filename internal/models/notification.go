package models

import (
	"encoding/json"
	"fmt"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationMessage NotificationType = "message"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationMessage:
		return true
	}
	return false
}

func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nt := NotificationType(raw)
	if !nt.Valid() {
		return fmt.Errorf("unknown notification type %q", raw)
	}
	*t = nt
	return nil
}

type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Content   string           `json:"content"`
	IsRead    bool             `json:"is_read"`
	CreatedAt Timestamp        `json:"created_at"`
	User      *UserSummary     `json:"user,omitempty"`
}
