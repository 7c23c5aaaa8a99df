package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"

	"payloadseed/internal/services"
)

// Stats summarises the seeded content.
type Stats struct {
	Users        int64
	Media        int64
	MediaBytes   int64
	Centres      int64
	CentreImages int64
}

// Stats counts rows in each table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(1) FROM users),
		(SELECT COUNT(1) FROM media),
		(SELECT COALESCE(SUM(filesize), 0) FROM media),
		(SELECT COUNT(1) FROM centres),
		(SELECT COUNT(1) FROM centre_images)`)
	if err := row.Scan(&st.Users, &st.Media, &st.MediaBytes, &st.Centres, &st.CentreImages); err != nil {
		return Stats{}, services.Wrap(services.ErrStore, "store", "stats", s.path, err)
	}
	return st, nil
}

// CheckUser reports whether email exists with the given password.
func (s *Store) CheckUser(ctx context.Context, email, password string) (bool, error) {
	var salt, hash string
	email = strings.ToLower(strings.TrimSpace(email))
	err := s.db.QueryRowContext(ctx, "SELECT salt, hash FROM users WHERE email = ?", email).Scan(&salt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, services.Wrap(services.ErrStore, "store", "check user", email, err)
	}
	return verifyPassword(password, salt, hash), nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
