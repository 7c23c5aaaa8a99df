package sqlitestore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/contentstore/sqlitestore"
	"payloadseed/internal/services"
	"payloadseed/internal/testsupport"
)

func stageFile(t *testing.T, name string) string {
	t.Helper()
	return testsupport.WriteFile(t, filepath.Join(t.TempDir(), name), testsupport.JPEGBytes)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	user := contentstore.UserInput{Email: "Dev@PayloadCMS.com", Password: "test"}
	created, err := store.EnsureUser(ctx, user)
	if err != nil || !created {
		t.Fatalf("first EnsureUser = %v, %v", created, err)
	}
	created, err = store.EnsureUser(ctx, user)
	if err != nil || created {
		t.Fatalf("second EnsureUser = %v, %v", created, err)
	}

	ok, err := store.CheckUser(ctx, "dev@payloadcms.com", "test")
	if err != nil || !ok {
		t.Fatalf("CheckUser(correct) = %v, %v", ok, err)
	}
	ok, err = store.CheckUser(ctx, "dev@payloadcms.com", "wrong")
	if err != nil || ok {
		t.Fatalf("CheckUser(wrong) = %v, %v", ok, err)
	}
	if _, err := store.EnsureUser(ctx, contentstore.UserInput{Email: "x@example.com"}); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected ErrStore for missing password, got %v", err)
	}
}

func TestCreateMediaCopiesUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	src := stageFile(t, "image-0-abc.jpg")
	rec, err := store.CreateMedia(ctx, contentstore.MediaInput{
		Alt:      "quiet river stone",
		FilePath: src,
		Filename: "image-0-abc.jpg",
		MimeType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}
	if rec.ID == "" || !rec.ID.Numeric() {
		t.Fatalf("unexpected id %q", rec.ID)
	}
	if rec.Size != int64(len(testsupport.JPEGBytes)) {
		t.Fatalf("size = %d", rec.Size)
	}
	if _, err := os.Stat(filepath.Join(cfg.Store.UploadsDir, "image-0-abc.jpg")); err != nil {
		t.Fatalf("upload missing: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should remain for the caller to unstage: %v", err)
	}

	// Duplicate filenames are rejected and the first upload is untouched.
	if _, err := store.CreateMedia(ctx, contentstore.MediaInput{FilePath: src, Filename: "image-0-abc.jpg", MimeType: "image/jpeg"}); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected ErrStore for duplicate upload, got %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Media != 1 || stats.MediaBytes != rec.Size {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCreateMediaMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	_, err := store.CreateMedia(context.Background(), contentstore.MediaInput{
		FilePath: filepath.Join(t.TempDir(), "gone.jpg"),
		Filename: "gone.jpg",
	})
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestCreateEntityLinksMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []contentstore.ID
	for _, name := range []string{"a.jpg", "b.jpg"} {
		rec, err := store.CreateMedia(ctx, contentstore.MediaInput{FilePath: stageFile(t, name), Filename: name, MimeType: "image/jpeg"})
		if err != nil {
			t.Fatalf("CreateMedia: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	rec, err := store.CreateEntity(ctx, contentstore.EntityInput{
		Name:          "Acme Holdings",
		FeaturedImage: ids[0],
		Logo:          ids[1],
		Images:        []contentstore.ID{ids[1], ids[0], ids[1]},
	})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if rec.ID == "" || len(rec.Images) != 3 {
		t.Fatalf("record = %+v", rec)
	}

	if _, err := store.CreateEntity(ctx, contentstore.EntityInput{Name: "Ghost", FeaturedImage: "9999"}); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected foreign key failure, got %v", err)
	}
	if _, err := store.CreateEntity(ctx, contentstore.EntityInput{Name: "Bad", Images: []contentstore.ID{"abc"}}); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected invalid id failure, got %v", err)
	}
	if _, err := store.CreateEntity(ctx, contentstore.EntityInput{Name: "  "}); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected missing name failure, got %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Centres != 1 || stats.CentreImages != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestConcurrentCreates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	paths := make([]string, 16)
	for i := range paths {
		paths[i] = stageFile(t, fmt.Sprintf("image-%d.jpg", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(paths))
	for _, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.CreateMedia(ctx, contentstore.MediaInput{FilePath: path, Filename: filepath.Base(path)}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("CreateMedia: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil || stats.Media != int64(len(paths)) {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := sqlitestore.OpenFromConfig(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.EnsureUser(context.Background(), contentstore.UserInput{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if err := reopened.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	stats, err := reopened.Stats(context.Background())
	if err != nil || stats.Users != 1 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
}

func TestOpenRequiresPaths(t *testing.T) {
	if _, err := sqlitestore.Open("", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
