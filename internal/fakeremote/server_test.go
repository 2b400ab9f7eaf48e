package fakeremote

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(WithPasswordCost(bcrypt.MinCost), WithLogger(log))
}

func call(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestPreflightAndFaults(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	rec, _ := call(t, h, http.MethodOptions, "/posts", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight: %d %v", rec.Code, rec.Header())
	}
	if s.Hits("posts") != 0 {
		t.Fatalf("preflight should not count as a hit")
	}

	s.Fail("posts", http.StatusBadGateway, "", 1)
	rec, body := call(t, h, http.MethodGet, "/posts?action=feed", nil)
	if rec.Code != http.StatusBadGateway || body["error"] != "injected failure" {
		t.Fatalf("fault not injected: %d %v", rec.Code, body)
	}
	rec, _ = call(t, h, http.MethodGet, "/posts?action=feed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fault should be consumed, got %d", rec.Code)
	}
	if s.Hits("posts") != 2 {
		t.Fatalf("hits = %d, want 2", s.Hits("posts"))
	}
}

func TestAuthMessages(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	reg := map[string]any{"action": "register", "phone": "+7911", "password": "pw", "full_name": "Dima K"}
	rec, body := call(t, h, http.MethodPost, "/auth", reg)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("register failed: %d %v", rec.Code, body)
	}
	if _, body = call(t, h, http.MethodPost, "/auth", reg); body["error"] != "Номер телефона уже зарегистрирован" {
		t.Fatalf("duplicate phone not rejected: %v", body)
	}

	login := map[string]any{"action": "login", "phone": "+7911", "password": "nope"}
	if rec, body = call(t, h, http.MethodPost, "/auth", login); rec.Code != http.StatusBadRequest || body["error"] != "Неверный номер телефона или пароль" {
		t.Fatalf("bad password: %d %v", rec.Code, body)
	}

	if len(s.Bodies("auth")) != 3 {
		t.Fatalf("bodies = %d, want 3", len(s.Bodies("auth")))
	}
}
