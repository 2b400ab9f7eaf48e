package fakeremote

import (
	"net/http"
	"sort"
	"strings"
)

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := queryID(r, "user_id")
		switch r.URL.Query().Get("action") {
		case "", "chats":
			s.listChats(w, userID)
			return
		case "messages":
			s.listMessages(w, queryID(r, "chat_id"), userID)
			return
		}
	case http.MethodPost:
		req, ok := s.decode("messages", r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		switch req.Action {
		case "create_chat":
			s.createChat(w, req)
			return
		case "send":
			s.sendMessage(w, req)
			return
		}
	}
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (s *Server) listChats(w http.ResponseWriter, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type row struct {
		item map[string]any
		last *message
	}
	var rows []row
	for _, c := range s.chats {
		other, ok := c.counterpart(userID)
		if !ok {
			continue
		}
		var last *message
		unread := 0
		for _, m := range s.messages {
			if m.chatID != c.id {
				continue
			}
			last = m
			if !m.isRead && m.senderID != userID {
				unread++
			}
		}
		item := map[string]any{
			"id":                c.id,
			"user":              s.summaryLocked(other, true),
			"last_message":      nil,
			"last_message_time": nil,
			"unread_count":      unread,
		}
		if last != nil {
			item["last_message"] = last.content
			item["last_message_time"] = isoTime(last.createdAt)
		}
		rows = append(rows, row{item: item, last: last})
	}
	// Most recent conversation first, empty chats last.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].last, rows[j].last
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.id > b.id
	})
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": out})
}

// listMessages returns the chat in order, then marks the counterpart's messages read.
func (s *Server) listMessages(w http.ResponseWriter, chatID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0)
	for _, m := range s.messages {
		if m.chatID != chatID {
			continue
		}
		out = append(out, map[string]any{
			"id":         m.id,
			"content":    m.content,
			"created_at": isoTime(m.createdAt),
			"is_read":    m.isRead,
			"sender":     s.summaryLocked(m.senderID, false),
		})
	}
	for _, m := range s.messages {
		if m.chatID == chatID && m.senderID != userID {
			m.isRead = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) createChat(w http.ResponseWriter, req request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if other, ok := c.counterpart(req.User1ID); ok && other == req.User2ID {
			writeJSON(w, http.StatusOK, map[string]any{"chat_id": c.id})
			return
		}
	}
	c := &chat{id: s.allocIDLocked(), members: [2]int64{req.User1ID, req.User2ID}}
	s.chats = append(s.chats, c)
	writeJSON(w, http.StatusOK, map[string]any{"chat_id": c.id})
}

func (s *Server) sendMessage(w http.ResponseWriter, req request) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "Сообщение не может быть пустым")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &message{
		id:        s.allocIDLocked(),
		chatID:    req.ChatID,
		senderID:  req.SenderID,
		content:   content,
		createdAt: s.now(),
	}
	s.messages = append(s.messages, m)
	for _, c := range s.chats {
		if other, ok := c.counterpart(req.SenderID); ok && c.id == req.ChatID {
			s.notifyLocked(other, req.SenderID, "message", "отправил вам сообщение")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message_id": m.id,
		"created_at": isoTime(m.createdAt),
	})
}

func (c *chat) counterpart(userID int64) (int64, bool) {
	switch userID {
	case c.members[0]:
		return c.members[1], true
	case c.members[1]:
		return c.members[0], true
	}
	return 0, false
}
