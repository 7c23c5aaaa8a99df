package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/fetcher"
	"payloadseed/internal/logging"
	"payloadseed/internal/services"
	"payloadseed/internal/staging"
	"payloadseed/internal/testsupport"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type fixture struct {
	store   *testsupport.FakeStore
	stager  *staging.Manager
	fetcher fetcher.Fetcher
}

func newFixture(t *testing.T, f fetcher.Fetcher) *fixture {
	t.Helper()
	stager, err := staging.NewManager(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = stager.Close() })
	if f == nil {
		f = &testsupport.StaticFetcher{Data: testsupport.JPEGBytes}
	}
	return &fixture{store: testsupport.NewFakeStore(), stager: stager, fetcher: f}
}

func (fx *fixture) pipeline(t *testing.T, media, entities int, mutate ...func(*Options)) *Pipeline {
	t.Helper()
	opts := Options{
		RunID:       "run-test",
		Media:       StageOptions{Count: media, Concurrency: 2, WindowMultiplier: 2},
		Entities:    StageOptions{Count: entities, Concurrency: 2, WindowMultiplier: 2},
		AltWords:    3,
		GallerySize: 3,
		Source:      fetcher.URLBuilder{BaseURL: "http://images.invalid", Width: 500, Height: 500},
		Bootstrap:   &contentstore.UserInput{Email: "dev@payloadcms.com", Password: "test"},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	p, err := New(opts, Deps{
		Store:   fx.store,
		Fetcher: fx.fetcher,
		Stager:  fx.stager,
		Rand:    NewRand(7),
		Logger:  logging.NewNop(),
		Sleep:   noSleep,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func evenIndexFails() fetcher.Fetcher {
	return fetcher.Func(func(ctx context.Context, url string) ([]byte, error) {
		idx, ok := services.ItemIndexFromContext(ctx)
		if !ok {
			return nil, errors.New("item index missing from context")
		}
		if idx%2 == 0 {
			return nil, services.Wrap(services.ErrFetch, "fetch", "get", url+" returned an empty body", nil)
		}
		return testsupport.JPEGBytes, nil
	})
}

func assertStagingEmpty(t *testing.T, fx *fixture) {
	t.Helper()
	for _, path := range fx.store.StagedPaths() {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("staged file %s still present", path)
		}
	}
}

func TestScenarioNoMediaRequested(t *testing.T) {
	fx := newFixture(t, nil)
	report, err := fx.pipeline(t, 0, 5).Run(context.Background())
	if !errors.Is(err, ErrNoMediaCreated) {
		t.Fatalf("err = %v, want ErrNoMediaCreated", err)
	}
	if report.EntitiesAllowed || !report.Entities.Skipped {
		t.Fatalf("entities should be skipped: %+v", report.Entities)
	}
	if fx.store.EntityCalls.Load() != 0 {
		t.Fatalf("entity stage invoked %d times", fx.store.EntityCalls.Load())
	}
	if !fx.store.HasUser("dev@payloadcms.com") || !report.UserCreated {
		t.Fatal("bootstrap user should be created before seeding")
	}
}

func TestScenarioHalfTheFetchesFail(t *testing.T) {
	fx := newFixture(t, evenIndexFails())
	report, err := fx.pipeline(t, 10, 3).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Media.Succeeded != 5 || report.Media.Failed != 5 {
		t.Fatalf("media report = %+v", report.Media)
	}
	if report.Media.Failures["fetch"] != 5 {
		t.Fatalf("failure kinds = %v", report.Media.Failures)
	}
	if report.Entities.Succeeded != 3 || report.Entities.Failed != 0 {
		t.Fatalf("entity report = %+v", report.Entities)
	}

	surviving := map[contentstore.ID]bool{}
	for _, rec := range fx.store.Media() {
		surviving[rec.ID] = true
	}
	if len(surviving) != 5 {
		t.Fatalf("surviving media = %d", len(surviving))
	}
	for _, ent := range fx.store.Entities() {
		if len(ent.Images) != 3 {
			t.Fatalf("gallery size = %d", len(ent.Images))
		}
		for _, id := range append([]contentstore.ID{ent.FeaturedImage, ent.Logo}, ent.Images...) {
			if !surviving[id] {
				t.Fatalf("entity %s references unknown media %s", ent.ID, id)
			}
		}
	}
	assertStagingEmpty(t, fx)
	if report.Summary() != "Created 5 media items and 3 centres." {
		t.Fatalf("summary = %q", report.Summary())
	}
}

func TestAllFetchesEmptyShortCircuits(t *testing.T) {
	fx := newFixture(t, &testsupport.StaticFetcher{Err: services.Wrap(services.ErrFetch, "fetch", "get", "empty body", nil)})
	report, err := fx.pipeline(t, 7, 4).Run(context.Background())
	if !errors.Is(err, ErrNoMediaCreated) {
		t.Fatalf("err = %v", err)
	}
	if report.Media.Succeeded != 0 || report.Media.Failed != 7 {
		t.Fatalf("media report = %+v", report.Media)
	}
	if fx.store.MediaCalls.Load() != 0 || fx.store.EntityCalls.Load() != 0 {
		t.Fatalf("store should not be called: media=%d entities=%d", fx.store.MediaCalls.Load(), fx.store.EntityCalls.Load())
	}
}

func TestStoreFailuresAreCountedAndFilesRemoved(t *testing.T) {
	fx := newFixture(t, nil)
	var calls int
	fx.store.MediaErr = func(contentstore.MediaInput) error {
		calls++
		if calls%3 == 0 {
			return services.Wrap(services.ErrStore, "store", "create media", "rejected", nil)
		}
		return nil
	}
	// One slot keeps the calls counter race free.
	report, err := fx.pipeline(t, 9, 2, func(o *Options) { o.Media.Concurrency = 1 }).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Media.Succeeded != 6 || report.Media.Failed != 3 || report.Media.Failures["store"] != 3 {
		t.Fatalf("media report = %+v", report.Media)
	}
	if len(fx.store.StagedPaths()) != 9 {
		t.Fatalf("staged paths = %d", len(fx.store.StagedPaths()))
	}
	assertStagingEmpty(t, fx)
}

func TestEntityFailuresDoNotRetry(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.EntityErr = func(in contentstore.EntityInput) error {
		return errors.New("centre rejected")
	}
	report, err := fx.pipeline(t, 2, 5).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Entities.Failed != 5 || fx.store.EntityCalls.Load() != 5 {
		t.Fatalf("entities failed=%d calls=%d", report.Entities.Failed, fx.store.EntityCalls.Load())
	}
}

func TestBootstrapFailureIsNotFatal(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.UserErr = errors.New("users collection locked")
	report, err := fx.pipeline(t, 2, 1).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.UserError == "" || report.Media.Succeeded != 2 || report.Entities.Succeeded != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestWindowsAndGatePerStage(t *testing.T) {
	fx := newFixture(t, nil)
	report, err := fx.pipeline(t, 20, 20, func(o *Options) {
		o.Media = StageOptions{Count: 20, Concurrency: 3, WindowMultiplier: 3}
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Media.Windows != 3 {
		t.Fatalf("media windows = %d, want 3", report.Media.Windows)
	}
	if report.Media.PeakInFlight > 3 || report.Entities.PeakInFlight > 2 {
		t.Fatalf("peaks media=%d entities=%d", report.Media.PeakInFlight, report.Entities.PeakInFlight)
	}
	if report.Entities.Windows != 5 {
		t.Fatalf("entity windows = %d, want 5", report.Entities.Windows)
	}
}

func TestCancelledRunStopsBetweenWindows(t *testing.T) {
	fx := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.store.MediaErr = func(contentstore.MediaInput) error {
		cancel()
		return nil
	}
	report, err := fx.pipeline(t, 40, 5).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !report.Media.Interrupted || report.Media.Windows != 1 {
		t.Fatalf("media report = %+v", report.Media)
	}
	if fx.store.EntityCalls.Load() != 0 {
		t.Fatal("entities should not run after cancellation")
	}
	want := fmt.Sprintf("Interrupted after creating %d media items; centres not started.", report.Media.Succeeded)
	if report.Summary() != want {
		t.Fatalf("summary = %q, want %q", report.Summary(), want)
	}
}

// indexRecorder captures what each item index produced so runs can be
// compared regardless of completion order or store-assigned ids.
type indexRecorder struct {
	*testsupport.FakeStore

	mu      sync.Mutex
	urls    map[int]string
	alts    map[int]string
	altByID map[contentstore.ID]string
	centres map[int]string
}

func newIndexRecorder() *indexRecorder {
	return &indexRecorder{
		FakeStore: testsupport.NewFakeStore(),
		urls:      map[int]string{},
		alts:      map[int]string{},
		altByID:   map[contentstore.ID]string{},
		centres:   map[int]string{},
	}
}

func (r *indexRecorder) fetcher(jitter int) fetcher.Fetcher {
	return fetcher.Func(func(ctx context.Context, url string) ([]byte, error) {
		idx, _ := services.ItemIndexFromContext(ctx)
		time.Sleep(time.Duration(((idx+jitter)*7919)%5) * time.Millisecond)
		r.mu.Lock()
		r.urls[idx] = url
		r.mu.Unlock()
		return testsupport.JPEGBytes, nil
	})
}

func (r *indexRecorder) CreateMedia(ctx context.Context, in contentstore.MediaInput) (contentstore.MediaRecord, error) {
	rec, err := r.FakeStore.CreateMedia(ctx, in)
	if err != nil {
		return rec, err
	}
	idx, _ := services.ItemIndexFromContext(ctx)
	r.mu.Lock()
	r.alts[idx] = in.Alt
	r.altByID[rec.ID] = in.Alt
	r.mu.Unlock()
	return rec, nil
}

func (r *indexRecorder) CreateEntity(ctx context.Context, in contentstore.EntityInput) (contentstore.EntityRecord, error) {
	rec, err := r.FakeStore.CreateEntity(ctx, in)
	if err != nil {
		return rec, err
	}
	idx, _ := services.ItemIndexFromContext(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := []string{in.Name, r.altByID[in.FeaturedImage], r.altByID[in.Logo]}
	for _, id := range in.Images {
		refs = append(refs, r.altByID[id])
	}
	r.centres[idx] = strings.Join(refs, "|")
	return rec, nil
}

func TestSameSeedReproducesItemsUnderConcurrency(t *testing.T) {
	run := func(jitter int) *indexRecorder {
		rec := newIndexRecorder()
		stager, err := staging.NewManager(t.TempDir(), "repro")
		if err != nil {
			t.Fatalf("NewManager: %v", err)
		}
		t.Cleanup(func() { _ = stager.Close() })
		p, err := New(Options{
			RunID:       "repro",
			Media:       StageOptions{Count: 24, Concurrency: 6, WindowMultiplier: 2},
			Entities:    StageOptions{Count: 12, Concurrency: 4, WindowMultiplier: 2},
			AltWords:    3,
			GallerySize: 3,
			Source:      fetcher.URLBuilder{BaseURL: "http://images.invalid", Width: 500, Height: 500},
		}, Deps{
			Store:   rec,
			Fetcher: rec.fetcher(jitter),
			Stager:  stager,
			Rand:    NewRand(7),
			Logger:  logging.NewNop(),
			Sleep:   noSleep,
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return rec
	}

	first := run(0)
	if len(first.urls) != 24 || len(first.centres) != 12 {
		t.Fatalf("recorded %d urls and %d centres", len(first.urls), len(first.centres))
	}
	for jitter := 1; jitter <= 3; jitter++ {
		again := run(jitter)
		for idx, url := range first.urls {
			if again.urls[idx] != url {
				t.Fatalf("rerun %d: media %d url %q, want %q", jitter, idx, again.urls[idx], url)
			}
			if again.alts[idx] != first.alts[idx] {
				t.Fatalf("rerun %d: media %d alt %q, want %q", jitter, idx, again.alts[idx], first.alts[idx])
			}
		}
		for idx, centre := range first.centres {
			if again.centres[idx] != centre {
				t.Fatalf("rerun %d: centre %d = %q, want %q", jitter, idx, again.centres[idx], centre)
			}
		}
	}
}

func TestNewValidatesOptions(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := New(Options{Media: StageOptions{Count: 1}, Entities: StageOptions{Count: 1, Concurrency: 1, WindowMultiplier: 1}},
		Deps{Store: fx.store, Fetcher: fx.fetcher, Stager: fx.stager})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(Options{}, Deps{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing deps, got %v", err)
	}
}
