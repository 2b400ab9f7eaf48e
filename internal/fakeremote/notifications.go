package fakeremote

import "net/http"

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listNotifications(w, queryID(r, "user_id"))
		return
	case http.MethodPost:
		req, ok := s.decode("notifications", r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		switch req.Action {
		case "mark_read":
			s.markRead(func(n *notification) bool { return n.id == req.NotificationID })
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		case "mark_all_read":
			s.markRead(func(n *notification) bool { return n.userID == req.UserID })
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (s *Server) listNotifications(w http.ResponseWriter, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0)
	for i := len(s.notifications) - 1; i >= 0 && len(out) < listLimit; i-- {
		n := s.notifications[i]
		if n.userID != userID {
			continue
		}
		item := map[string]any{
			"id":         n.id,
			"type":       n.kind,
			"content":    n.content,
			"is_read":    n.isRead,
			"created_at": isoTime(n.createdAt),
		}
		if n.relatedID > 0 {
			item["user"] = s.summaryLocked(n.relatedID, false)
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (s *Server) markRead(match func(*notification) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if match(n) {
			n.isRead = true
		}
	}
}

// notifyLocked records a notification for userID unless the actor is the user themselves.
func (s *Server) notifyLocked(userID, actorID int64, kind, content string) {
	if userID == actorID || userID == 0 {
		return
	}
	s.notifications = append(s.notifications, &notification{
		id:        s.allocIDLocked(),
		userID:    userID,
		relatedID: actorID,
		kind:      kind,
		content:   content,
		createdAt: s.now(),
	})
}

// Notify adds a notification of an arbitrary kind. Tests use it to plant unknown types.
func (s *Server) Notify(userID, actorID int64, kind, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(userID, actorID, kind, content)
}
