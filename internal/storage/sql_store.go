package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"socialclient/internal/config"
)

// SQLStore keeps records in the session_records table.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// OpenSQLStore opens and migrates the database configured for backend.
func OpenSQLStore(backend string, cfg *config.Config) (*SQLStore, error) {
	db, err := Open(backend, cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLStore(db, backend)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database, creating the table if needed.
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	if err := Migrate(db, driver); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, driver: Driver(driver), now: time.Now}, nil
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM session_records WHERE record_key = ?`), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return payload, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value []byte) error {
	var stmt string
	switch s.driver {
	case "mysql":
		stmt = `INSERT INTO session_records (record_key, payload, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
	default:
		stmt = `INSERT INTO session_records (record_key, payload, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (record_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(stmt), key, value, s.now().Unix()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM session_records WHERE record_key = ?`), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
