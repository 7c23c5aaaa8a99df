package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"payloadseed/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory with small
// stage sizes, no inter-window delay, and the sqlite backend.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Backend = config.BackendSQLite
	cfgVal.Store.SQLitePath = filepath.Join(base, "content.db")
	cfgVal.Store.UploadsDir = filepath.Join(base, "uploads")
	cfgVal.Source.BaseURL = "http://127.0.0.1:0"
	cfgVal.Media.Count = 10
	cfgVal.Media.Concurrency = 2
	cfgVal.Media.WindowMultiplier = 2
	cfgVal.Media.WindowDelayMS = 0
	cfgVal.Entities.Count = 6
	cfgVal.Entities.Concurrency = 2
	cfgVal.Entities.WindowMultiplier = 2
	cfgVal.Entities.WindowDelayMS = 0
	cfgVal.Seed.RandomSeed = 1
	cfgVal.Preflight.MinFreeMiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSourceURL points the image source at baseURL.
func WithSourceURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.BaseURL = baseURL
	}
}

// WithPayloadAPI switches the store backend to the Payload REST API.
func WithPayloadAPI(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = config.BackendPayload
		b.cfg.Store.PayloadURL = baseURL
		b.cfg.Store.APIKey = apiKey
	}
}

// WithCounts overrides the media and entity counts.
func WithCounts(media, entities int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.Count = media
		b.cfg.Entities.Count = entities
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}

// WriteConfig marshals cfg as TOML to path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	return WriteFile(t, path, data)
}
