package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"payloadseed/internal/config"
	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

// Store persists seeded content in SQLite.
type Store struct {
	db         *sql.DB
	path       string
	uploadsDir string
}

var _ contentstore.Store = (*Store)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the database at dbPath. Uploaded files are
// copied into uploadsDir.
func Open(dbPath, uploadsDir string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	uploadsDir = strings.TrimSpace(uploadsDir)
	if dbPath == "" || uploadsDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "sqlite path and uploads dir are required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "open", "create database directory", err)
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "open", "create uploads directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "open", "open sqlite db", err)
	}

	// Pragmas are per connection; a single connection keeps foreign_keys on
	// for every statement and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStore, "store", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}
	store := &Store{db: db, path: dbPath, uploadsDir: uploadsDir}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStore, "store", "open", "initialize schema", err)
	}
	return store, nil
}

// OpenFromConfig opens the store described by the [store] config section.
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	return Open(cfg.Store.SQLitePath, cfg.Store.UploadsDir)
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// UploadsDir returns the directory uploads are copied into.
func (s *Store) UploadsDir() string { return s.uploadsDir }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return services.Wrap(services.ErrStore, "store", "ping", s.path, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
