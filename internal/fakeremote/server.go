// Package fakeremote is an in-memory stand-in for the remote backend's five endpoint groups.
// It speaks the same wire format and error texts, and lets tests inject failures per group.
package fakeremote

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"socialclient/internal/config"
)

const (
	msgMethodNotAllowed = "Метод не поддерживается"
	msgUserNotFound     = "Пользователь не найден"
	msgForbidden        = "Доступ запрещён"
	listLimit           = 50
	isoLayout           = "2006-01-02T15:04:05.000000"
)

type account struct {
	id           int64
	phone        string
	passwordHash []byte
	username     string
	fullName     string
	bio          *string
	avatarURL    *string
	isAdmin      bool
	isBanned     bool
	createdAt    time.Time
}

type post struct {
	id        int64
	userID    int64
	content   string
	createdAt time.Time
	likes     map[int64]bool
	comments  int64
}

type chat struct {
	id      int64
	members [2]int64
}

type message struct {
	id        int64
	chatID    int64
	senderID  int64
	content   string
	createdAt time.Time
	isRead    bool
}

type notification struct {
	id        int64
	userID    int64
	relatedID int64
	kind      string
	content   string
	createdAt time.Time
	isRead    bool
}

type fault struct {
	status    int
	body      string
	remaining int
}

// Server holds the fake backend state. The zero value is not usable; call New.
type Server struct {
	mu            sync.Mutex
	nextID        int64
	accounts      map[int64]*account
	phones        map[string]int64
	posts         []*post
	chats         []*chat
	messages      []*message
	notifications []*notification

	faults map[string]*fault
	hits   map[string]int
	bodies map[string][]map[string]any

	cost int
	now  func() time.Time
	log  logrus.FieldLogger
}

type Option func(*Server)

// WithPasswordCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(opts ...Option) *Server {
	s := &Server{
		accounts: make(map[int64]*account),
		phones:   make(map[string]int64),
		faults:   make(map[string]*fault),
		hits:     make(map[string]int),
		bodies:   make(map[string][]map[string]any),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes /auth, /posts, /messages, /notifications and /admin.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.intercept)
	r.HandleFunc("/auth", s.handleAuth)
	r.HandleFunc("/posts", s.handlePosts)
	r.HandleFunc("/messages", s.handleMessages)
	r.HandleFunc("/notifications", s.handleNotifications)
	r.HandleFunc("/admin", s.handleAdmin)
	return r
}

// Endpoints returns the endpoint configuration for a fake served at base.
func Endpoints(base string) config.Endpoints {
	base = strings.TrimRight(base, "/")
	return config.Endpoints{
		Auth:          base + "/auth",
		Posts:         base + "/posts",
		Messages:      base + "/messages",
		Notifications: base + "/notifications",
		Admin:         base + "/admin",
	}
}

// Fail makes the next times requests to group answer with status and body.
// An empty body becomes a JSON error object.
func (s *Server) Fail(group string, status int, body string, times int) {
	if body == "" {
		body = `{"error":"injected failure"}`
	}
	s.mu.Lock()
	s.faults[group] = &fault{status: status, body: body, remaining: times}
	s.mu.Unlock()
}

// Hits reports how many requests reached group, injected failures included.
func (s *Server) Hits(group string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[group]
}

// Bodies returns the decoded JSON bodies of write requests sent to group, oldest first.
func (s *Server) Bodies(group string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.bodies[group]...)
}

// SeedUser registers an account directly and returns its id.
func (s *Server) SeedUser(phone, password, fullName string, admin bool) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.createAccountLocked(phone, hash, fullName)
	acc.isAdmin = admin
	return acc.id, nil
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		group := strings.Trim(r.URL.Path, "/")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			w.WriteHeader(http.StatusOK)
			return
		}

		s.mu.Lock()
		s.hits[group]++
		f := s.faults[group]
		var injected *fault
		if f != nil && f.remaining > 0 {
			f.remaining--
			injected = &fault{status: f.status, body: f.body}
		}
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{
			"group":      group,
			"method":     r.Method,
			"request_id": r.Header.Get("X-Request-Id"),
		}).Debug("fake remote request")

		if injected != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(injected.status)
			w.Write([]byte(injected.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type request struct {
	Action         string  `json:"action"`
	Phone          string  `json:"phone"`
	Password       string  `json:"password"`
	FullName       *string `json:"full_name"`
	Username       *string `json:"username"`
	Bio            *string `json:"bio"`
	AvatarURL      *string `json:"avatar_url"`
	Content        string  `json:"content"`
	UserID         int64   `json:"user_id"`
	PostID         int64   `json:"post_id"`
	ChatID         int64   `json:"chat_id"`
	SenderID       int64   `json:"sender_id"`
	NotificationID int64   `json:"notification_id"`
	AdminID        int64   `json:"admin_id"`
	User1ID        int64   `json:"user1_id"`
	User2ID        int64   `json:"user2_id"`
}

func (s *Server) decode(group string, r *http.Request) (request, bool) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return request{}, false
	}
	s.mu.Lock()
	s.bodies[group] = append(s.bodies[group], raw)
	s.mu.Unlock()

	buf, _ := json.Marshal(raw)
	var req request
	if err := json.Unmarshal(buf, &req); err != nil {
		return request{}, false
	}
	return req, true
}

func queryID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func isoTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(isoLayout)
}

func (s *Server) allocIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) summaryLocked(id int64, withUsername bool) map[string]any {
	acc := s.accounts[id]
	if acc == nil {
		return map[string]any{"id": id, "full_name": ""}
	}
	out := map[string]any{
		"id":         acc.id,
		"full_name":  acc.fullName,
		"avatar_url": acc.avatarURL,
	}
	if withUsername {
		out["username"] = acc.username
	}
	return out
}
