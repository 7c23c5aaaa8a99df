package sqlitestore

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/fileutil"
	"payloadseed/internal/services"
)

const defaultMediaSource = "user"

// CreateMedia copies the staged file into the uploads directory and records
// the media row. The copy is removed again if the insert fails.
func (s *Store) CreateMedia(ctx context.Context, media contentstore.MediaInput) (contentstore.MediaRecord, error) {
	filename := filepath.Base(strings.TrimSpace(media.Filename))
	if filename == "." || filename == "/" || filename == "" {
		filename = filepath.Base(media.FilePath)
	}
	if strings.TrimSpace(media.FilePath) == "" {
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", "file path is required", nil)
	}
	source := strings.TrimSpace(media.Source)
	if source == "" {
		source = defaultMediaSource
	}

	target := filepath.Join(s.uploadsDir, filename)
	copied, err := fileutil.CopyFileVerified(media.FilePath, target)
	if err != nil {
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", "copy upload "+filename, err)
	}

	var id int64
	err = retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO media (alt, source, filename, mime_type, filesize, sha256, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			media.Alt, source, filename, media.MimeType, copied.Size, copied.SHA256, now(),
		).Scan(&id)
	})
	if err != nil {
		_ = removeFile(target)
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", "insert "+filename, err)
	}

	return contentstore.MediaRecord{
		ID:       contentstore.ID(strconv.FormatInt(id, 10)),
		Alt:      media.Alt,
		Filename: filename,
		MimeType: media.MimeType,
		Size:     copied.Size,
	}, nil
}
