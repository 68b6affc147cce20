package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the persisted token store backend. It keeps one token row per
// namespaced key and survives across sessions; a corrupt database file is
// preserved under a timestamped name and recreated rather than blocking the
// handshake.
type SQLite struct {
	path   string
	conn   *sql.DB
	sealer *Sealer
}

// OpenSQLite opens (or creates) the token database at path. A non-nil sealer
// encrypts token values at rest.
func OpenSQLite(path string, sealer *Sealer) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	conn, err := openAndInit(clean)
	if err == nil {
		return &SQLite{path: clean, conn: conn, sealer: sealer}, nil
	}

	// Preserve a corrupt database and start fresh instead of failing login.
	if !isCorruptSQLiteError(err) {
		return nil, err
	}

	if _, statErr := os.Stat(clean); statErr == nil {
		backupPath := clean + ".corrupt." + time.Now().UTC().Format("20060102T150405Z")
		if renameErr := os.Rename(clean, backupPath); renameErr != nil {
			return nil, fmt.Errorf("store appears corrupt (%v), and rename failed: %w", err, renameErr)
		}
		if sidecarErr := renameSQLiteSidecars(clean, backupPath); sidecarErr != nil {
			return nil, fmt.Errorf("store appears corrupt (%v), and sidecar rename failed: %w", err, sidecarErr)
		}
	}

	conn, err = openAndInit(clean)
	if err != nil {
		return nil, err
	}
	return &SQLite{path: clean, conn: conn, sealer: sealer}, nil
}

// DefaultPath returns the default on-disk location for the token database.
func DefaultPath() string {
	if home := os.Getenv("KTAUTH_HOME"); home != "" {
		return filepath.Join(home, "tokens.db")
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "ktauth", "tokens.db")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".local", "share", "ktauth", "tokens.db")
	}
	return filepath.Join(homeDir, ".local", "share", "ktauth", "tokens.db")
}

// Path returns the on-disk path of the database file.
func (s *SQLite) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *SQLite) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *SQLite) Get(key string) (string, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM tokens WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}

	if s.sealer != nil {
		plain, ok := s.sealer.Open(value)
		if !ok {
			// Wrong passphrase or tampered row reads as absent.
			return "", nil
		}
		return plain, nil
	}
	return value, nil
}

func (s *SQLite) Set(key, value string) error {
	if s.sealer != nil {
		value = s.sealer.Seal(value)
	}

	_, err := s.conn.Exec(`
		INSERT INTO tokens (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *SQLite) Clear(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func openAndInit(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite PRAGMAs are per-connection; keep a single shared connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	initErr := func() error {
		if err := conn.Ping(); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		if _, err := conn.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
			return fmt.Errorf("set journal_mode=WAL: %w", err)
		}
		if _, err := conn.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
			return fmt.Errorf("set busy_timeout: %w", err)
		}
		if _, err := conn.Exec(`
			CREATE TABLE IF NOT EXISTS tokens (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`); err != nil {
			return fmt.Errorf("create tokens table: %w", err)
		}
		return nil
	}()

	if initErr != nil {
		_ = conn.Close()
		return nil, initErr
	}

	return conn, nil
}

func dsn(path string) string {
	// Use an explicit file: DSN so we can pass mode=rwc for auto-create.
	return "file:" + filepath.ToSlash(path) + "?mode=rwc"
}

func isCorruptSQLiteError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrInvalid) {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "file is not a database"):
		return true
	case strings.Contains(msg, "malformed"):
		return true
	default:
		return false
	}
}

func renameSQLiteSidecars(path, backupPath string) error {
	for _, suffix := range []string{"-wal", "-shm"} {
		oldPath := path + suffix
		if _, err := os.Stat(oldPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %s: %w", oldPath, err)
		}
		if err := os.Rename(oldPath, backupPath+suffix); err != nil {
			return fmt.Errorf("rename %s: %w", oldPath, err)
		}
	}
	return nil
}
