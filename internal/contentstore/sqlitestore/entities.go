package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

// CreateEntity inserts a centre and its gallery in one transaction. Unknown
// media ids fail the foreign key checks and nothing is written.
func (s *Store) CreateEntity(ctx context.Context, entity contentstore.EntityInput) (contentstore.EntityRecord, error) {
	name := strings.TrimSpace(entity.Name)
	if name == "" {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", "name is required", nil)
	}
	featured, err := optionalRef(entity.FeaturedImage)
	if err != nil {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", "featured image", err)
	}
	logo, err := optionalRef(entity.Logo)
	if err != nil {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", "logo", err)
	}
	images := make([]int64, 0, len(entity.Images))
	for _, ref := range entity.Images {
		id, err := strconv.ParseInt(string(ref), 10, 64)
		if err != nil {
			return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", "gallery image", fmt.Errorf("invalid media id %q", ref))
		}
		images = append(images, id)
	}

	var centreID int64
	err = retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if err := tx.QueryRowContext(ctx,
			"INSERT INTO centres (name, featured_image_id, logo_id, created_at) VALUES (?, ?, ?, ?) RETURNING id",
			name, featured, logo, now(),
		).Scan(&centreID); err != nil {
			return err
		}
		for pos, mediaID := range images {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO centre_images (centre_id, position, media_id) VALUES (?, ?, ?)",
				centreID, pos, mediaID,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", name, err)
	}

	out := contentstore.EntityRecord{
		ID:            contentstore.ID(strconv.FormatInt(centreID, 10)),
		Name:          name,
		FeaturedImage: entity.FeaturedImage,
		Logo:          entity.Logo,
		Images:        append([]contentstore.ID(nil), entity.Images...),
	}
	return out, nil
}

func optionalRef(id contentstore.ID) (sql.NullInt64, error) {
	if id == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("invalid media id %q", id)
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}
