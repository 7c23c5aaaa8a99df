package sqlitestore

import (
	"context"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

// Payload's local strategy derives a 512-byte key with 25000 rounds of
// PBKDF2-SHA256 over a 32-byte hex salt.
const (
	passwordIterations = 25000
	passwordKeyLength  = 512
	passwordSaltBytes  = 32
)

// EnsureUser inserts the user unless the email is already present.
func (s *Store) EnsureUser(ctx context.Context, user contentstore.UserInput) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || user.Password == "" {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "email and password are required", nil)
	}

	var existing int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "lookup "+email, err)
	}

	salt, hash, err := hashPassword(user.Password)
	if err != nil {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "hash password", err)
	}
	var res sql.Result
	err = retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			"INSERT INTO users (email, salt, hash, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(email) DO NOTHING",
			email, salt, hash, now())
		return execErr
	})
	if err != nil {
		return false, services.Wrap(services.ErrStore, "store", "ensure user", "insert "+email, err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func hashPassword(password string) (salt string, hash string, err error) {
	raw := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(raw)
	key, err := pbkdf2.Key(sha256.New, password, []byte(salt), passwordIterations, passwordKeyLength)
	if err != nil {
		return "", "", err
	}
	return salt, hex.EncodeToString(key), nil
}

// verifyPassword reports whether password matches the stored salt and hash.
func verifyPassword(password, salt, hash string) bool {
	key, err := pbkdf2.Key(sha256.New, password, []byte(salt), passwordIterations, passwordKeyLength)
	if err != nil {
		return false
	}
	return hex.EncodeToString(key) == hash
}
