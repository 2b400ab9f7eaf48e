package fakeremote

import (
	"net/http"
	"strings"
)

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		action := r.URL.Query().Get("action")
		if action == "" {
			action = "feed"
		}
		switch action {
		case "feed":
			s.listPosts(w, 0, true)
			return
		case "user_posts":
			s.listPosts(w, queryID(r, "user_id"), false)
			return
		}
	case http.MethodPost:
		req, ok := s.decode("posts", r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		switch req.Action {
		case "create":
			s.createPost(w, req)
			return
		case "like":
			s.likePost(w, req)
			return
		case "comment":
			s.commentPost(w, req)
			return
		}
	}
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// listPosts answers newest first. The feed is capped and carries authors; a user's own list is not.
func (s *Server) listPosts(w http.ResponseWriter, userID int64, feed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0)
	for i := len(s.posts) - 1; i >= 0; i-- {
		p := s.posts[i]
		if !feed && p.userID != userID {
			continue
		}
		item := map[string]any{
			"id":         p.id,
			"content":    p.content,
			"created_at": isoTime(p.createdAt),
			"likes":      len(p.likes),
			"comments":   p.comments,
		}
		if feed {
			item["author"] = s.summaryLocked(p.userID, true)
		}
		out = append(out, item)
		if feed && len(out) == listLimit {
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": out})
}

func (s *Server) createPost(w http.ResponseWriter, req request) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "Контент не может быть пустым")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &post{
		id:        s.allocIDLocked(),
		userID:    req.UserID,
		content:   content,
		createdAt: s.now(),
		likes:     make(map[int64]bool),
	}
	s.posts = append(s.posts, p)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"post":    map[string]any{"id": p.id, "created_at": isoTime(p.createdAt)},
	})
}

func (s *Server) likePost(w http.ResponseWriter, req request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPostLocked(req.PostID)
	if p == nil {
		writeError(w, http.StatusNotFound, "Пост не найден")
		return
	}
	if p.likes[req.UserID] {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Уже лайкнуто"})
		return
	}
	p.likes[req.UserID] = true
	s.notifyLocked(p.userID, req.UserID, "like", "лайкнул ваш пост")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) commentPost(w http.ResponseWriter, req request) {
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Комментарий не может быть пустым")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPostLocked(req.PostID)
	if p == nil {
		writeError(w, http.StatusNotFound, "Пост не найден")
		return
	}
	p.comments++
	id := s.allocIDLocked()
	s.notifyLocked(p.userID, req.UserID, "comment", "прокомментировал ваш пост")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "comment_id": id})
}

func (s *Server) findPostLocked(id int64) *post {
	for _, p := range s.posts {
		if p.id == id {
			return p
		}
	}
	return nil
}
