package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateBootstrap(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if c.Preflight.MinFreeMiB < 0 {
		return errors.New("preflight.min_free_mib must be >= 0")
	}
	if c.Notifications.NtfyTopic != "" {
		if err := validateHTTPURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSource() error {
	if err := validateHTTPURL("source.base_url", c.Source.BaseURL); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"source.width":           c.Source.Width,
		"source.height":          c.Source.Height,
		"source.timeout_seconds": c.Source.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Source.RequestsPerSecond < 0 {
		return errors.New("source.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("store.sqlite_path must be set when store.backend is sqlite")
		}
		if strings.TrimSpace(c.Store.UploadsDir) == "" {
			return errors.New("store.uploads_dir must be set when store.backend is sqlite")
		}
	case BackendPayload:
		if err := validateHTTPURL("store.payload_url", c.Store.PayloadURL); err != nil {
			return err
		}
		if c.Store.APIKey == "" && !c.Bootstrap.Enabled {
			return errors.New("store.api_key must be set when store.backend is payload and bootstrap is disabled (or set PAYLOAD_API_KEY)")
		}
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want %q or %q)", c.Store.Backend, BackendSQLite, BackendPayload)
	}
	return nil
}

func (c *Config) validateBootstrap() error {
	if !c.Bootstrap.Enabled {
		return nil
	}
	if c.Bootstrap.Email == "" || !strings.Contains(c.Bootstrap.Email, "@") {
		return errors.New("bootstrap.email must be a valid address when bootstrap.enabled is true")
	}
	if c.Bootstrap.Password == "" {
		return errors.New("bootstrap.password must be set when bootstrap.enabled is true")
	}
	return nil
}

func (c *Config) validateStages() error {
	if c.Media.Count < 0 {
		return errors.New("media.count must be >= 0")
	}
	if c.Entities.Count < 0 {
		return errors.New("entities.count must be >= 0")
	}
	if err := ensurePositiveMap(map[string]int{
		"media.concurrency":          c.Media.Concurrency,
		"media.window_multiplier":    c.Media.WindowMultiplier,
		"entities.concurrency":       c.Entities.Concurrency,
		"entities.window_multiplier": c.Entities.WindowMultiplier,
	}); err != nil {
		return err
	}
	if c.Entities.GallerySize < 0 {
		return errors.New("entities.gallery_size must be >= 0")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
