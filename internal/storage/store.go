// Package storage persists the session record. Backends share the Store interface:
// SQL databases (sqlite3, mysql, postgres), redis, a single JSON file, and memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"socialclient/internal/config"
	"socialclient/internal/redis"
)

var (
	// ErrNotFound is returned by Load when no record is stored under the key.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt is returned by Load when the backing document cannot be decoded.
	// Save and Delete replace such a document instead of failing.
	ErrCorrupt = errors.New("corrupt storage document")
)

// Store is durable key/value storage for serialized records.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const redisKeyPrefix = "socialclient:"

// FromConfig opens the backend named by basic_config.storage and, when a session key is
// configured, seals records with it.
func FromConfig(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	backend := strings.ToLower(cfg.BasicConfig.Storage)

	var (
		store Store
		err   error
	)
	switch backend {
	case "memory":
		store = NewMemoryStore()
	case "file":
		store, err = NewFileStore(cfg.FileStore.Path)
	case "redis":
		var client *redis.Client
		client, err = redis.NewRedisClient(ctx, cfg, redisKeyPrefix)
		if err == nil {
			store = NewRedisStore(client)
		}
	default:
		if Driver(backend) == "" {
			return nil, fmt.Errorf("unsupported storage backend: %s", backend)
		}
		store, err = OpenSQLStore(backend, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", backend, err)
	}

	if cfg.SessionKey == "" {
		log.WithField("backend", backend).Info("session storage ready")
		return store, nil
	}
	sealed, err := NewSealedStore(store, cfg.SessionKey)
	if err != nil {
		store.Close()
		return nil, err
	}
	log.WithField("backend", backend).Info("session storage ready (sealed)")
	return sealed, nil
}
