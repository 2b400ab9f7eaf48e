// Package session owns the identity of the logged-in user. The Manager keeps the user record
// in memory and mirrors it to durable storage under one fixed key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"socialclient/internal/gateway"
	"socialclient/internal/models"
	"socialclient/internal/storage"
)

// ErrNoSession is returned by operations that need a logged-in user.
var ErrNoSession = errors.New("no active session")

// Remote is the part of the gateway client the Manager drives.
type Remote interface {
	Login(ctx context.Context, phone, password string) (*models.User, error)
	Register(ctx context.Context, phone, password, fullName string) (*models.User, error)
	AdminLogin(ctx context.Context, phone, password string) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, update gateway.ProfileUpdate) (*models.User, error)
}

// Manager is safe for concurrent use. Mutations are serialized and always write
// storage before memory, so a failed write leaves the previous session in place.
type Manager struct {
	mu       sync.RWMutex
	remote   Remote
	store    storage.Store
	key      string
	log      logrus.FieldLogger
	user     *models.User
	restored bool
}

// NewManager builds a Manager that persists the session under key in store.
func NewManager(remote Remote, store storage.Store, key string, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{remote: remote, store: store, key: key, log: log}
}

// Restore installs the persisted record, if there is a well-formed one. Only the first call
// does any work. Malformed or unreadable records leave the session empty and are kept in storage.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restored {
		return nil
	}
	m.restored = true

	raw, err := m.store.Load(ctx, m.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case errors.Is(err, storage.ErrInvalidCiphertext), errors.Is(err, storage.ErrCorrupt):
		m.log.WithField("key", m.key).WithError(err).Warn("persisted session cannot be opened, starting logged out")
		return nil
	case err != nil:
		return fmt.Errorf("restore session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID <= 0 {
		m.log.WithField("key", m.key).WithError(err).Warn("persisted session is malformed, starting logged out")
		return nil
	}
	m.user = &user
	m.log.WithField("user_id", user.ID).Info("session restored")
	return nil
}

// Login authenticates against the remote auth endpoint and installs the returned user.
// On failure the session is left as it was.
func (m *Manager) Login(ctx context.Context, phone, password string) (*models.User, error) {
	user, err := m.remote.Login(ctx, phone, password)
	if err != nil {
		return nil, err
	}
	return m.install(ctx, user)
}

// Register creates an account and installs it as the session, like Login.
func (m *Manager) Register(ctx context.Context, phone, password, fullName string) (*models.User, error) {
	user, err := m.remote.Register(ctx, phone, password, fullName)
	if err != nil {
		return nil, err
	}
	return m.install(ctx, user)
}

// AdminLogin checks admin credentials. It never touches the session.
func (m *Manager) AdminLogin(ctx context.Context, phone, password string) (*models.User, error) {
	return m.remote.AdminLogin(ctx, phone, password)
}

// Logout clears the session and removes the persisted record. The session is gone even
// when the storage delete fails; that error is still returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.user
	m.user = nil
	if prev != nil {
		m.log.WithField("user_id", prev.ID).Info("logged out")
	}
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("remove persisted session: %w", err)
	}
	return nil
}

// UpdateFields merges patch into the session. It does nothing when no one is logged in.
func (m *Manager) UpdateFields(ctx context.Context, patch models.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	return m.mergeLocked(ctx, m.user.ID, patch)
}

// UpdateProfile sends the change to the remote backend and merges what it returns.
func (m *Manager) UpdateProfile(ctx context.Context, update gateway.ProfileUpdate) (*models.User, error) {
	current := m.Current()
	if current == nil {
		return nil, ErrNoSession
	}
	updated, err := m.remote.UpdateProfile(ctx, current.ID, update)
	if err != nil {
		return nil, err
	}
	return m.merge(ctx, current.ID, models.PatchFromUser(*updated))
}

// Refresh re-reads the user's profile, picking up follower counts and admin flag changes.
func (m *Manager) Refresh(ctx context.Context) (*models.User, error) {
	current := m.Current()
	if current == nil {
		return nil, ErrNoSession
	}
	fresh, err := m.remote.GetUser(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	patch := models.PatchFromUser(*fresh)
	patch.IsAdmin = &fresh.IsAdmin
	return m.merge(ctx, current.ID, patch)
}

// Current returns a copy of the session user, or nil.
func (m *Manager) Current() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

// IsAuthenticated reports whether a user is logged in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) install(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persistLocked(ctx, user); err != nil {
		return nil, err
	}
	m.user = user.Clone()
	m.log.WithField("user_id", user.ID).Info("session installed")
	return user.Clone(), nil
}

// merge applies patch only if userID is still the one logged in.
func (m *Manager) merge(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil || m.user.ID != userID {
		return nil, ErrNoSession
	}
	if err := m.mergeLocked(ctx, userID, patch); err != nil {
		return nil, err
	}
	return m.user.Clone(), nil
}

func (m *Manager) mergeLocked(ctx context.Context, userID int64, patch models.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	merged := patch.Apply(*m.user)
	if err := m.persistLocked(ctx, &merged); err != nil {
		return err
	}
	m.user = &merged
	return nil
}

func (m *Manager) persistLocked(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Save(ctx, m.key, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
