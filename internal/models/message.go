package models

// Chat summarises a conversation from the point of view of one participant.
type Chat struct {
	ID              int64       `json:"id"`
	User            UserSummary `json:"user"`
	LastMessage     *string     `json:"last_message"`
	LastMessageTime Timestamp   `json:"last_message_time"`
	UnreadCount     int64       `json:"unread_count"`
}

// Message is a single chat message.
type Message struct {
	ID        int64       `json:"id"`
	Content   string      `json:"content"`
	CreatedAt Timestamp   `json:"created_at"`
	IsRead    bool        `json:"is_read"`
	Sender    UserSummary `json:"sender"`
}

func (m Message) SenderID() int64 {
	return m.Sender.ID
}

// SentMessage is returned after sending a message.
type SentMessage struct {
	MessageID int64     `json:"message_id"`
	CreatedAt Timestamp `json:"created_at"`
}
