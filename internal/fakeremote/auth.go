package fakeremote

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getUser(w, r)
		return
	case http.MethodPost:
		req, ok := s.decode("auth", r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		switch req.Action {
		case "register":
			s.register(w, req)
			return
		case "login":
			s.login(w, req)
			return
		}
	case http.MethodPut:
		req, ok := s.decode("auth", r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		s.updateProfile(w, req)
		return
	}
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (s *Server) register(w http.ResponseWriter, req request) {
	fullName := ""
	if req.FullName != nil {
		fullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone == "" || req.Password == "" || fullName == "" {
		writeError(w, http.StatusBadRequest, "Заполните все поля")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.phones[req.Phone]; exists {
		writeError(w, http.StatusBadRequest, "Номер телефона уже зарегистрирован")
		return
	}
	acc := s.createAccountLocked(req.Phone, hash, fullName)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": sessionView(acc)})
}

func (s *Server) login(w http.ResponseWriter, req request) {
	if req.Phone == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Введите телефон и пароль")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[s.phones[req.Phone]]
	if acc == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "Неверный номер телефона или пароль")
		return
	}
	if acc.isBanned {
		writeError(w, http.StatusForbidden, "Ваш аккаунт заблокирован администратором")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": sessionView(acc)})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := queryID(r, "user_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[id]
	if acc == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	view := sessionView(acc)
	view["is_banned"] = acc.isBanned
	view["followers_count"] = 0
	view["following_count"] = 0
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) updateProfile(w http.ResponseWriter, req request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[req.UserID]
	if acc == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	if req.FullName != nil {
		acc.fullName = *req.FullName
	}
	if req.Bio != nil {
		bio := *req.Bio
		acc.bio = &bio
	}
	if req.AvatarURL != nil {
		avatar := *req.AvatarURL
		acc.avatarURL = &avatar
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": sessionView(acc)})
}

func (s *Server) createAccountLocked(phone string, hash []byte, fullName string) *account {
	acc := &account{
		id:           s.allocIDLocked(),
		phone:        phone,
		passwordHash: hash,
		username:     handleFor(fullName),
		fullName:     fullName,
		createdAt:    s.now(),
	}
	s.accounts[acc.id] = acc
	s.phones[phone] = acc.id
	return acc
}

// handleFor derives a username like "ivan_petrov_3f9a1c".
func handleFor(fullName string) string {
	base := strings.ReplaceAll(strings.ToLower(fullName), " ", "_")
	return base + "_" + uuid.NewString()[:6]
}

func sessionView(acc *account) map[string]any {
	return map[string]any{
		"id":         acc.id,
		"username":   acc.username,
		"full_name":  acc.fullName,
		"avatar_url": acc.avatarURL,
		"bio":        acc.bio,
		"is_admin":   acc.isAdmin,
	}
}
