package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Source contains configuration for the external image source.
type Source struct {
	BaseURL           string `toml:"base_url"`
	Width             int    `toml:"width"`
	Height            int    `toml:"height"`
	UserAgent         string `toml:"user_agent"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerSecond int    `toml:"requests_per_second"` // 0 disables pacing
	MaxBytes          int64  `toml:"max_bytes"`
}

// Store selects and configures the content store backend.
type Store struct {
	Backend          string `toml:"backend"` // "sqlite" or "payload"
	SQLitePath       string `toml:"sqlite_path"`
	UploadsDir       string `toml:"uploads_dir"`
	PayloadURL       string `toml:"payload_url"`
	APIKey           string `toml:"api_key"`
	MediaCollection  string `toml:"media_collection"`
	EntityCollection string `toml:"entity_collection"`
	UserCollection   string `toml:"user_collection"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Bootstrap describes the account created before seeding starts.
type Bootstrap struct {
	Enabled  bool   `toml:"enabled"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// Media configures the media ingestion stage.
type Media struct {
	Count            int `toml:"count"`
	Concurrency      int `toml:"concurrency"`
	WindowMultiplier int `toml:"window_multiplier"`
	WindowDelayMS    int `toml:"window_delay_ms"`
	AltWords         int `toml:"alt_words"`
}

// Entities configures the entity linking stage.
type Entities struct {
	Count            int `toml:"count"`
	Concurrency      int `toml:"concurrency"`
	WindowMultiplier int `toml:"window_multiplier"`
	WindowDelayMS    int `toml:"window_delay_ms"`
	GallerySize      int `toml:"gallery_size"`
}

// Seed contains run-wide settings.
type Seed struct {
	// RandomSeed makes runs reproducible. Zero picks a time-based seed.
	RandomSeed        uint64 `toml:"random_seed"`
	StaleStagingHours int    `toml:"stale_staging_hours"`
}

// Preflight contains thresholds used before a run starts.
type Preflight struct {
	MinFreeMiB int64 `toml:"min_free_mib"`
}

// Notifications configures ntfy run notices. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for payloadseed.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories
//   - Source: external image source and HTTP client settings
//   - Store: content store backend (local SQLite or Payload REST API)
//   - Bootstrap: account ensured before seeding
//   - Media / Entities: per-stage counts, concurrency, windowing
//   - Seed: randomness and staging hygiene
//   - Preflight: disk space threshold
//   - Notifications: optional ntfy run notices
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Store         Store         `toml:"store"`
	Bootstrap     Bootstrap     `toml:"bootstrap"`
	Media         Media         `toml:"media"`
	Entities      Entities      `toml:"entities"`
	Seed          Seed          `toml:"seed"`
	Preflight     Preflight     `toml:"preflight"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("payloadseed.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a seeding run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir}
	if c.Store.Backend == BackendSQLite {
		dirs = append(dirs, c.Store.UploadsDir, filepath.Dir(c.Store.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceTimeout returns the per-request timeout for the image source.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// StoreTimeout returns the per-request timeout for the Payload REST API.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// NotifyTimeout returns the per-request timeout for ntfy notices.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// MediaWindowDelay returns the pause inserted between media windows.
func (c *Config) MediaWindowDelay() time.Duration {
	return time.Duration(c.Media.WindowDelayMS) * time.Millisecond
}

// EntityWindowDelay returns the pause inserted between entity windows.
func (c *Config) EntityWindowDelay() time.Duration {
	return time.Duration(c.Entities.WindowDelayMS) * time.Millisecond
}

// StaleStagingAge returns the age after which leftover staging run
// directories are removed.
func (c *Config) StaleStagingAge() time.Duration {
	return time.Duration(c.Seed.StaleStagingHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
