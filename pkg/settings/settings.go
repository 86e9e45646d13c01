// Package settings persists the small amount of device-local state that must
// live outside both record stores: the sync high-water mark, the selected
// mode and the remote credentials.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	_ "modernc.org/sqlite"
)

const (
	KeyLastSyncTime = "last_sync_time"
	KeyMode         = "mode"
	KeyRemoteURL    = "remote_url"
	KeyRemoteAPIKey = "remote_api_key"
)

const schema = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Store is a key/value table in its own SQLite file.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the settings database and configures pragmas.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening settings database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value, or "" when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	return nil
}

// LastSyncTime returns the high-water mark in unix milliseconds, 0 before the
// first successful sync.
func (s *Store) LastSyncTime(ctx context.Context) (int64, error) {
	raw, err := s.Get(ctx, KeyLastSyncTime)
	if err != nil || raw == "" {
		return 0, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", KeyLastSyncTime, raw, err)
	}
	return ms, nil
}

func (s *Store) SetLastSyncTime(ctx context.Context, ms int64) error {
	return s.Set(ctx, KeyLastSyncTime, strconv.FormatInt(ms, 10))
}

// Mode returns the persisted mode, offline when nothing was stored.
func (s *Store) Mode(ctx context.Context) (enums.Mode, error) {
	raw, err := s.Get(ctx, KeyMode)
	if err != nil {
		return enums.ModeOffline, err
	}
	if raw == "" {
		return enums.ModeOffline, nil
	}
	return enums.ParseMode(raw)
}

func (s *Store) SetMode(ctx context.Context, mode enums.Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid mode %q", mode)
	}
	return s.Set(ctx, KeyMode, mode.String())
}

// RemoteCredentials returns the persisted endpoint and API key.
func (s *Store) RemoteCredentials(ctx context.Context) (string, string, error) {
	endpoint, err := s.Get(ctx, KeyRemoteURL)
	if err != nil {
		return "", "", err
	}
	apiKey, err := s.Get(ctx, KeyRemoteAPIKey)
	if err != nil {
		return "", "", err
	}
	return endpoint, apiKey, nil
}

func (s *Store) SetRemoteCredentials(ctx context.Context, endpoint, apiKey string) error {
	endpoint = strings.TrimSpace(endpoint)
	apiKey = strings.TrimSpace(apiKey)
	if endpoint == "" || apiKey == "" {
		return errors.New("endpoint and api key are both required")
	}
	if err := s.Set(ctx, KeyRemoteURL, endpoint); err != nil {
		return err
	}
	return s.Set(ctx, KeyRemoteAPIKey, apiKey)
}

func (s *Store) ClearRemoteCredentials(ctx context.Context) error {
	return s.Delete(ctx, KeyRemoteURL, KeyRemoteAPIKey)
}
