package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"payloadseed/internal/contentstore"
)

// FakeStore is an in-memory contentstore.Store. Media creation requires the
// staged file to exist at call time, and entity creation rejects references
// to media the store never created.
type FakeStore struct {
	// MediaErr, when set, decides whether a media create fails.
	MediaErr func(contentstore.MediaInput) error
	// EntityErr, when set, decides whether an entity create fails.
	EntityErr func(contentstore.EntityInput) error
	UserErr   error
	PingErr   error

	mu          sync.Mutex
	nextID      int
	users       map[string]string
	media       []contentstore.MediaRecord
	mediaIDs    map[contentstore.ID]struct{}
	entities    []contentstore.EntityRecord
	stagedPaths []string

	MediaCalls  atomic.Int64
	EntityCalls atomic.Int64
	closed      atomic.Bool
}

var _ contentstore.Store = (*FakeStore)(nil)

// NewFakeStore returns an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{users: map[string]string{}, mediaIDs: map[contentstore.ID]struct{}{}}
}

func (f *FakeStore) Ping(context.Context) error { return f.PingErr }

func (f *FakeStore) EnsureUser(_ context.Context, user contentstore.UserInput) (bool, error) {
	if f.UserErr != nil {
		return false, f.UserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return false, nil
	}
	f.users[user.Email] = user.Password
	return true, nil
}

func (f *FakeStore) CreateMedia(_ context.Context, in contentstore.MediaInput) (contentstore.MediaRecord, error) {
	f.MediaCalls.Add(1)
	info, err := os.Stat(in.FilePath)
	if err != nil {
		return contentstore.MediaRecord{}, fmt.Errorf("fake store: staged file unavailable: %w", err)
	}
	f.mu.Lock()
	f.stagedPaths = append(f.stagedPaths, in.FilePath)
	f.mu.Unlock()
	if f.MediaErr != nil {
		if err := f.MediaErr(in); err != nil {
			return contentstore.MediaRecord{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec := contentstore.MediaRecord{
		ID:       contentstore.ID(strconv.Itoa(f.nextID)),
		Alt:      in.Alt,
		Filename: in.Filename,
		MimeType: in.MimeType,
		Size:     info.Size(),
	}
	f.media = append(f.media, rec)
	f.mediaIDs[rec.ID] = struct{}{}
	return rec, nil
}

func (f *FakeStore) CreateEntity(_ context.Context, in contentstore.EntityInput) (contentstore.EntityRecord, error) {
	f.EntityCalls.Add(1)
	if f.EntityErr != nil {
		if err := f.EntityErr(in); err != nil {
			return contentstore.EntityRecord{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	refs := append([]contentstore.ID{in.FeaturedImage, in.Logo}, in.Images...)
	for _, ref := range refs {
		if _, ok := f.mediaIDs[ref]; !ok {
			return contentstore.EntityRecord{}, fmt.Errorf("fake store: unknown media id %q", ref)
		}
	}
	f.nextID++
	rec := contentstore.EntityRecord{
		ID:            contentstore.ID(strconv.Itoa(f.nextID)),
		Name:          in.Name,
		FeaturedImage: in.FeaturedImage,
		Logo:          in.Logo,
		Images:        append([]contentstore.ID(nil), in.Images...),
	}
	f.entities = append(f.entities, rec)
	return rec, nil
}

func (f *FakeStore) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return errors.New("fake store: already closed")
	}
	return nil
}

// Media returns a copy of the created media records.
func (f *FakeStore) Media() []contentstore.MediaRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contentstore.MediaRecord(nil), f.media...)
}

// Entities returns a copy of the created entity records.
func (f *FakeStore) Entities() []contentstore.EntityRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contentstore.EntityRecord(nil), f.entities...)
}

// StagedPaths lists every file path passed to CreateMedia.
func (f *FakeStore) StagedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stagedPaths...)
}

// HasUser reports whether EnsureUser stored email.
func (f *FakeStore) HasUser(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok
}

// StaticFetcher returns Data for every call unless FailWhen selects the call.
type StaticFetcher struct {
	Data     []byte
	Err      error
	FailWhen func(call int64) bool

	calls atomic.Int64
}

// Fetch implements fetcher.Fetcher.
func (s *StaticFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	call := s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil && (s.FailWhen == nil || s.FailWhen(call)) {
		return nil, s.Err
	}
	return append([]byte(nil), s.Data...), nil
}

// Calls reports how many times Fetch ran.
func (s *StaticFetcher) Calls() int64 { return s.calls.Load() }
