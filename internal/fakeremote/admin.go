package fakeremote

import "net/http"

var adminMessages = map[string]string{
	"ban":          "Пользователь заблокирован",
	"unban":        "Пользователь разблокирован",
	"grant_admin":  "Права администратора выданы",
	"revoke_admin": "Права администратора отозваны",
	"update_user":  "Данные пользователя обновлены",
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		switch r.URL.Query().Get("action") {
		case "", "stats":
			s.adminStats(w)
			return
		case "users":
			s.adminUsers(w)
			return
		}
	case http.MethodPut:
		req, ok := s.decode("admin", r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if s.adminWrite(w, req) {
			return
		}
	}
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (s *Server) adminStats(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	banned := 0
	for _, acc := range s.accounts {
		if acc.isBanned {
			banned++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users_count":  len(s.accounts),
		"posts_count":  len(s.posts),
		"banned_count": banned,
	})
}

func (s *Server) adminUsers(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.accounts))
	for id := s.nextID; id > 0; id-- {
		acc := s.accounts[id]
		if acc == nil {
			continue
		}
		out = append(out, map[string]any{
			"id":         acc.id,
			"full_name":  acc.fullName,
			"username":   acc.username,
			"phone":      acc.phone,
			"avatar_url": acc.avatarURL,
			"is_banned":  acc.isBanned,
			"is_admin":   acc.isAdmin,
			"created_at": isoTime(acc.createdAt),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// adminWrite applies one admin action. It reports false for actions it does not know,
// and for an update_user that changes nothing.
func (s *Server) adminWrite(w http.ResponseWriter, req request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if admin := s.accounts[req.AdminID]; admin == nil || !admin.isAdmin {
		writeError(w, http.StatusForbidden, msgForbidden)
		return true
	}
	msg, known := adminMessages[req.Action]
	if !known {
		return false
	}
	target := s.accounts[req.UserID]
	if target == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return true
	}
	switch req.Action {
	case "ban":
		target.isBanned = true
	case "unban":
		target.isBanned = false
	case "grant_admin":
		target.isAdmin = true
	case "revoke_admin":
		target.isAdmin = false
	case "update_user":
		if req.FullName == nil && req.Username == nil {
			return false
		}
		if req.FullName != nil {
			target.fullName = *req.FullName
		}
		if req.Username != nil {
			target.username = *req.Username
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
	return true
}
