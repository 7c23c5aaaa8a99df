package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeBootstrap()
	c.normalizeStages()
	if err := c.normalizeSeed(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
}

func (c *Config) normalizeSeed() error {
	if c.Seed.RandomSeed != 0 {
		return nil
	}
	value, ok := os.LookupEnv("PAYLOADSEED_SEED")
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fmt.Errorf("PAYLOADSEED_SEED: %w", err)
	}
	c.Seed.RandomSeed = parsed
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = defaultSourceBaseURL
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultSourceTimeoutSeconds
	}
	if c.Source.MaxBytes <= 0 {
		c.Source.MaxBytes = defaultSourceMaxBytes
	}
	if c.Source.RequestsPerSecond < 0 {
		c.Source.RequestsPerSecond = 0
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}

	var err error
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = defaultSQLitePath
	}
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	if strings.TrimSpace(c.Store.UploadsDir) == "" {
		c.Store.UploadsDir = defaultUploadsDir
	}
	if c.Store.UploadsDir, err = expandPath(c.Store.UploadsDir); err != nil {
		return fmt.Errorf("store.uploads_dir: %w", err)
	}

	if c.Store.PayloadURL == "" {
		if value, ok := os.LookupEnv("PAYLOAD_URL"); ok {
			c.Store.PayloadURL = value
		}
	}
	c.Store.PayloadURL = strings.TrimRight(strings.TrimSpace(c.Store.PayloadURL), "/")
	if c.Store.PayloadURL == "" {
		c.Store.PayloadURL = defaultPayloadURL
	}
	if c.Store.APIKey == "" {
		if value, ok := os.LookupEnv("PAYLOAD_API_KEY"); ok {
			c.Store.APIKey = value
		}
	}
	c.Store.APIKey = strings.TrimSpace(c.Store.APIKey)

	c.Store.MediaCollection = defaultIfBlank(c.Store.MediaCollection, defaultMediaCollection)
	c.Store.EntityCollection = defaultIfBlank(c.Store.EntityCollection, defaultEntityCollection)
	c.Store.UserCollection = defaultIfBlank(c.Store.UserCollection, defaultUserCollection)
	if c.Store.TimeoutSeconds <= 0 {
		c.Store.TimeoutSeconds = defaultStoreTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeBootstrap() {
	c.Bootstrap.Email = strings.TrimSpace(c.Bootstrap.Email)
	if c.Bootstrap.Password == "" {
		if value, ok := os.LookupEnv("PAYLOADSEED_BOOTSTRAP_PASSWORD"); ok {
			c.Bootstrap.Password = value
		}
	}
}

func (c *Config) normalizeStages() {
	if c.Media.WindowMultiplier <= 0 {
		c.Media.WindowMultiplier = defaultWindowMultiplier
	}
	if c.Media.WindowDelayMS < 0 {
		c.Media.WindowDelayMS = 0
	}
	if c.Media.AltWords <= 0 {
		c.Media.AltWords = defaultAltWords
	}
	if c.Entities.WindowMultiplier <= 0 {
		c.Entities.WindowMultiplier = defaultWindowMultiplier
	}
	if c.Entities.WindowDelayMS < 0 {
		c.Entities.WindowDelayMS = 0
	}
	if c.Seed.StaleStagingHours < 0 {
		c.Seed.StaleStagingHours = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func defaultIfBlank(value, fallback string) string {
	value = strings.Trim(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}
