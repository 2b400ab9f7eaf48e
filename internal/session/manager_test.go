package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"socialclient/internal/config"
	"socialclient/internal/fakeremote"
	"socialclient/internal/gateway"
	"socialclient/internal/models"
	"socialclient/internal/storage"
)

const testKey = config.DefaultStorageKey

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type harness struct {
	fake    *fakeremote.Server
	client  *gateway.Client
	store   *storage.MemoryStore
	manager *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := fakeremote.New(fakeremote.WithPasswordCost(bcrypt.MinCost), fakeremote.WithLogger(quietLogger()))
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client := gateway.New(fakeremote.Endpoints(srv.URL),
		gateway.WithHTTPClient(srv.Client()),
		gateway.WithRetries(0, 0),
		gateway.WithLogger(quietLogger()),
	)
	store := storage.NewMemoryStore()
	return &harness{
		fake:    fake,
		client:  client,
		store:   store,
		manager: NewManager(client, store, testKey, quietLogger()),
	}
}

func persisted(t *testing.T, store storage.Store) *models.User {
	t.Helper()
	raw, err := store.Load(context.Background(), testKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("load persisted record: %v", err)
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		t.Fatalf("decode persisted record: %v", err)
	}
	return &user
}

func TestLoginInstallsAndPersistsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registered, err := h.manager.Register(ctx, "+70000000001", "secret", "Ivan Petrov")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := h.manager.Logout(ctx); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	user, err := h.manager.Login(ctx, "+70000000001", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("login id %d, want %d", user.ID, registered.ID)
	}
	current := h.manager.Current()
	if current == nil || current.ID != user.ID {
		t.Fatalf("session not installed: %+v", current)
	}
	if stored := persisted(t, h.store); stored == nil || !reflect.DeepEqual(stored, current) {
		t.Fatalf("persisted record differs: %+v vs %+v", stored, current)
	}

	// A fresh manager over the same storage restores the same record.
	restored := NewManager(h.client, h.store, testKey, quietLogger())
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if got := restored.Current(); got == nil || got.ID != user.ID || got.Username != user.Username {
		t.Fatalf("restored session differs: %+v", got)
	}
}

func TestFailedLoginLeavesSessionUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, err := h.manager.Register(ctx, "+70000000002", "secret", "Anna")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, err = h.manager.Login(ctx, "+70000000002", "wrong")
	if err == nil {
		t.Fatalf("expected login failure")
	}
	if msg := ErrorMessage(err, FallbackLogin); msg != "Неверный номер телефона или пароль" {
		t.Fatalf("unexpected message %q", msg)
	}
	if cur := h.manager.Current(); cur == nil || cur.ID != first.ID {
		t.Fatalf("session changed after failed login: %+v", cur)
	}
}

func TestLogoutAlwaysClears(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.manager.Logout(ctx); err != nil {
		t.Fatalf("Logout without session: %v", err)
	}
	if h.manager.IsAuthenticated() || persisted(t, h.store) != nil {
		t.Fatalf("expected empty state")
	}

	if _, err := h.manager.Register(ctx, "+70000000003", "secret", "Oleg"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := h.manager.Logout(ctx); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if h.manager.IsAuthenticated() || h.manager.Current() != nil {
		t.Fatalf("session still present after logout")
	}
	if persisted(t, h.store) != nil {
		t.Fatalf("persisted record still present after logout")
	}
}

func TestUpdateFieldsWithoutSessionIsNoop(t *testing.T) {
	h := newHarness(t)
	if err := h.manager.UpdateFields(context.Background(), models.UserPatch{FullName: models.String("x")}); err != nil {
		t.Fatalf("UpdateFields error: %v", err)
	}
	if h.manager.IsAuthenticated() || persisted(t, h.store) != nil {
		t.Fatalf("UpdateFields created a session")
	}
}

func TestUpdateFieldsMergesPatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before, err := h.manager.Register(ctx, "+70000000004", "secret", "Maria")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	patch := models.UserPatch{Bio: models.String("travel"), AvatarURL: models.String("https://cdn/a.png")}
	if err := h.manager.UpdateFields(ctx, patch); err != nil {
		t.Fatalf("UpdateFields error: %v", err)
	}
	after := h.manager.Current()
	want := patch.Apply(*before)
	if after.ID != want.ID || after.FullName != before.FullName || after.Username != before.Username {
		t.Fatalf("unspecified keys changed: %+v", after)
	}
	if after.Bio == nil || *after.Bio != "travel" || after.AvatarURL == nil || *after.AvatarURL != "https://cdn/a.png" {
		t.Fatalf("patch not applied: %+v", after)
	}
	stored := persisted(t, h.store)
	if stored.Bio == nil || *stored.Bio != "travel" {
		t.Fatalf("patch not persisted: %+v", stored)
	}
}

func TestAdminLoginDoesNotTouchSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "user": {"id": 7, "username": "u7", "full_name": "User Seven", "is_admin": false}}`))
	}))
	defer srv.Close()
	client := gateway.New(config.Endpoints{Auth: srv.URL}, gateway.WithLogger(quietLogger()))
	store := storage.NewMemoryStore()
	m := NewManager(client, store, testKey, quietLogger())
	ctx := context.Background()

	user, err := m.Login(ctx, "+70000000000", "secret")
	if err != nil || user.ID != 7 {
		t.Fatalf("login: %+v %v", user, err)
	}
	before, _ := store.Load(ctx, testKey)

	_, err = m.AdminLogin(ctx, "+70000000000", "secret")
	res := Outcome(err, FallbackLogin)
	if res.Success || res.Error != gateway.AccessDeniedMessage {
		t.Fatalf("expected denial, got %+v", res)
	}
	after, _ := store.Load(ctx, testKey)
	if string(before) != string(after) {
		t.Fatalf("stored session changed: %s -> %s", before, after)
	}
	if cur := m.Current(); cur == nil || cur.ID != 7 {
		t.Fatalf("session changed: %+v", cur)
	}
}

func TestRestoreIgnoresMalformedRecords(t *testing.T) {
	cases := map[string]string{
		"invalid json": `{"id":`,
		"zero id":      `{"id":0,"full_name":"x"}`,
		"wrong type":   `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			store.Save(context.Background(), testKey, []byte(raw))
			m := NewManager(nil, store, testKey, quietLogger())
			if err := m.Restore(context.Background()); err != nil {
				t.Fatalf("Restore error: %v", err)
			}
			if m.IsAuthenticated() {
				t.Fatalf("malformed record installed")
			}
		})
	}
}

func TestRestoreRunsOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(nil, store, testKey, quietLogger())
	ctx := context.Background()
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	store.Save(ctx, testKey, []byte(`{"id":5,"full_name":"Late"}`))
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("second Restore error: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatalf("second Restore should be a no-op")
	}
}

func TestRestoreWithWrongSealingKey(t *testing.T) {
	inner := storage.NewMemoryStore()
	ctx := context.Background()
	writer, err := storage.NewSealedStore(inner, "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewSealedStore error: %v", err)
	}
	writer.Save(ctx, testKey, []byte(`{"id":3,"full_name":"Sealed"}`))

	reader, err := storage.NewSealedStore(inner, "fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatalf("NewSealedStore error: %v", err)
	}
	m := NewManager(nil, reader, testKey, quietLogger())
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatalf("record sealed with another key was installed")
	}

	same := NewManager(nil, writer, testKey, quietLogger())
	if err := same.Restore(ctx); err != nil || !same.IsAuthenticated() {
		t.Fatalf("sealed record did not restore: %v", err)
	}
}

func TestCorruptFileStoreStartsLoggedOut(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	store, err := storage.NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	h := newHarness(t)
	m := NewManager(h.client, store, testKey, quietLogger())
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatalf("corrupt document installed a session")
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("corrupt document left on disk after logout: %v", err)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("rewrite corrupt file: %v", err)
	}
	if _, err := h.fake.SeedUser("+79990001122", "pw", "File User", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	user, err := m.Login(ctx, "+79990001122", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got := persisted(t, store); got == nil || got.ID != user.ID {
		t.Fatalf("login did not overwrite the corrupt document: %+v", got)
	}
}

type failingStore struct {
	*storage.MemoryStore
	failSave   bool
	failDelete bool
}

func (f *failingStore) Save(ctx context.Context, key string, value []byte) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("read-only")
	}
	return f.MemoryStore.Delete(ctx, key)
}

func TestPersistFailureKeepsPreviousSession(t *testing.T) {
	h := newHarness(t)
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	m := NewManager(h.client, store, testKey, quietLogger())
	ctx := context.Background()

	if _, err := m.Register(ctx, "+70000000005", "secret", "First"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	store.failSave = true
	if _, err := m.Register(ctx, "+70000000006", "secret", "Second"); err == nil {
		t.Fatalf("expected persist error")
	}
	if cur := m.Current(); cur == nil || cur.FullName != "First" {
		t.Fatalf("session replaced despite persist failure: %+v", cur)
	}
	if err := m.UpdateFields(ctx, models.UserPatch{Bio: models.String("x")}); err == nil {
		t.Fatalf("expected persist error on update")
	}
	if cur := m.Current(); cur.Bio != nil {
		t.Fatalf("memory changed despite persist failure: %+v", cur)
	}

	store.failDelete = true
	if err := m.Logout(ctx); err == nil {
		t.Fatalf("expected delete error")
	}
	if m.IsAuthenticated() {
		t.Fatalf("logout must clear memory even when storage fails")
	}
}

func TestUpdateProfileAndRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.manager.UpdateProfile(ctx, gateway.ProfileUpdate{Bio: models.String("x")}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	user, err := h.manager.Register(ctx, "+70000000007", "secret", "Pavel")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	updated, err := h.manager.UpdateProfile(ctx, gateway.ProfileUpdate{FullName: models.String("Pavel Ivanov"), Bio: models.String("hi")})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.FullName != "Pavel Ivanov" || updated.Bio == nil || *updated.Bio != "hi" {
		t.Fatalf("profile not merged: %+v", updated)
	}
	if stored := persisted(t, h.store); stored.FullName != "Pavel Ivanov" {
		t.Fatalf("profile not persisted: %+v", stored)
	}

	adminID, err := h.fake.SeedUser("+70000000008", "root", "Admin", true)
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := h.client.GrantAdmin(ctx, adminID, user.ID); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	refreshed, err := h.manager.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if !refreshed.IsAdmin || refreshed.FollowersCount == nil {
		t.Fatalf("refresh did not pick up server state: %+v", refreshed)
	}
	if refreshed.Bio == nil || *refreshed.Bio != "hi" {
		t.Fatalf("refresh dropped bio: %+v", refreshed)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&gateway.APIError{Status: 400, Message: "Заполните все поля"}, "Заполните все поля"},
		{&gateway.APIError{Status: 500}, FallbackRegister},
		{gateway.ErrTransport, NetworkError},
		{ErrNoSession, LoginRequired},
		{&gateway.DecodeError{Err: errors.New("bad")}, FallbackRegister},
	}
	for _, tc := range cases {
		if got := ErrorMessage(tc.err, FallbackRegister); got != tc.want {
			t.Fatalf("ErrorMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
