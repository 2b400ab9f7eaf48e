package storage

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"

	"socialclient/internal/config"
)

const testKey = "0123456789abcdef0123456789abcdef"

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "askar63_user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := store.Save(ctx, "askar63_user", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save(ctx, "askar63_user", []byte(`{"id":2}`)); err != nil {
		t.Fatalf("Save overwrite error: %v", err)
	}
	got, err := store.Load(ctx, "askar63_user")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if string(got) != `{"id":2}` {
		t.Fatalf("unexpected record: %s", got)
	}
	if err := store.Delete(ctx, "askar63_user"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := store.Delete(ctx, "askar63_user"); err != nil {
		t.Fatalf("Delete of missing key error: %v", err)
	}
	if _, err := store.Load(ctx, "askar63_user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func openSQLite(t *testing.T, dsn string) *SQLStore {
	t.Helper()
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{"sqlite3": {DSN: dsn}}}
	store, err := OpenSQLStore("sqlite3", cfg)
	if err != nil {
		t.Fatalf("OpenSQLStore error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, openSQLite(t, ":memory:"))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	first := openSQLite(t, path)
	if err := first.Save(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	first.Close()

	second := openSQLite(t, path)
	got, err := second.Load(context.Background(), "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("record lost across reopen: %q %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	exerciseStore(t, store)

	if err := store.Save(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("unexpected file mode %o", perm)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	corrupt := func() {
		t.Helper()
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("write corrupt file: %v", err)
		}
	}

	corrupt()
	if _, err := store.Load(ctx, "k"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if err := store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Save over corrupt document: %v", err)
	}
	if got, err := store.Load(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Load after overwrite = %q, %v", got, err)
	}

	corrupt()
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete of corrupt document: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("corrupt document still present: %v", err)
	}
}

func TestSealedStoreRoundTrip(t *testing.T) {
	inner := NewMemoryStore()
	sealed, err := NewSealedStore(inner, testKey)
	if err != nil {
		t.Fatalf("NewSealedStore error: %v", err)
	}
	exerciseStore(t, sealed)

	ctx := context.Background()
	if err := sealed.Save(ctx, "k", []byte(`{"id":7}`)); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	raw, _ := inner.Load(ctx, "k")
	if string(raw) == `{"id":7}` {
		t.Fatalf("record stored in plain text")
	}

	other, err := NewSealedStore(inner, "ZmVkY2JhOTg3NjU0MzIxMGZlZGNiYTk4NzY1NDMyMTA=")
	if err != nil {
		t.Fatalf("NewSealedStore base64 key error: %v", err)
	}
	if _, err := other.Load(ctx, "k"); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext with wrong key, got %v", err)
	}

	// A record moved to another key does not open.
	inner.Save(ctx, "moved", raw)
	if _, err := sealed.Load(ctx, "moved"); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext for moved record, got %v", err)
	}
}

func TestSealedStoreRejectsShortKey(t *testing.T) {
	if _, err := NewSealedStore(NewMemoryStore(), "short"); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestFromConfig(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.BasicConfig.Storage = "file"
	cfg.FileStore.Path = filepath.Join(t.TempDir(), "session.json")
	cfg.SessionKey = testKey
	store, err := FromConfig(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("FromConfig error: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SealedStore); !ok {
		t.Fatalf("expected sealed store, got %T", store)
	}

	cfg.BasicConfig.Storage = "cassandra"
	if _, err := FromConfig(context.Background(), cfg, log); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

func TestRebindForPostgres(t *testing.T) {
	s := &SQLStore{driver: "pgx"}
	got := s.rebind(`INSERT INTO t (a, b) VALUES (?, ?)`)
	if got != `INSERT INTO t (a, b) VALUES ($1, $2)` {
		t.Fatalf("unexpected rebind: %s", got)
	}
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("set TEST_MYSQL_DSN to run mysql-backed storage tests")
	}
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{"mysql": {DSN: dsn}}}
	store, err := OpenSQLStore("mysql", cfg)
	if err != nil {
		t.Fatalf("OpenSQLStore error: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres-backed storage tests")
	}
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{"postgres": {DSN: dsn}}}
	store, err := OpenSQLStore("postgres", cfg)
	if err != nil {
		t.Fatalf("OpenSQLStore error: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed storage tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	cfg := config.Default()
	cfg.BasicConfig.Storage = "redis"
	cfg.Redis = config.RedisConfig{Host: host, Port: port}
	store, err := FromConfig(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig error: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}
