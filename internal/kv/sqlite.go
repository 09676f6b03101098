package kv

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/allgemeinbildung/abubox/internal/db"
	"github.com/allgemeinbildung/abubox/internal/util/compression"
)

// SQLite keeps values compressed in the kv table of a db.DB.
type SQLite struct {
	db         db.DB
	compressor compression.Compressor
}

// NewSQLite wraps an initialized database.
func NewSQLite(database db.DB, compressor compression.Compressor) *SQLite {
	if compressor == nil {
		compressor = compression.None{}
	}
	return &SQLite{
		db:         database,
		compressor: compressor,
	}
}

// OpenSQLite opens and initializes the database file at path.
func OpenSQLite(path string, compressor compression.Compressor) (*SQLite, error) {
	database := db.NewSQLite(path)
	if err := database.InitDB(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return NewSQLite(database, compressor), nil
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}

	value, err := s.compressor.Decompress(blob)
	if err != nil {
		return "", true, fmt.Errorf("%w: %s: %w", ErrCorruptValue, key, err)
	}
	return string(value), true, nil
}

func (s *SQLite) Set(key, value string) error {
	blob, err := s.compressor.Compress([]byte(value))
	if err != nil {
		return fmt.Errorf("%w: compress %s: %w", ErrUnavailable, key, err)
	}

	_, err = s.db.Exec(`
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, blob)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

func (s *SQLite) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE substr(key, 1, length(?)) = ?`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: scan key: %w", ErrUnavailable, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrUnavailable, err)
	}
	return keys, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
