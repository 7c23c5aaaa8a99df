package config

// Supported content store backends.
const (
	BackendSQLite  = "sqlite"
	BackendPayload = "payload"
)

const (
	defaultConfigPath           = "~/.config/payloadseed/config.toml"
	defaultStagingDir           = "~/.local/share/payloadseed/staging"
	defaultLogDir               = "~/.local/share/payloadseed/logs"
	defaultSQLitePath           = "~/.local/share/payloadseed/content.db"
	defaultUploadsDir           = "~/.local/share/payloadseed/uploads"
	defaultSourceBaseURL        = "https://picsum.photos"
	defaultSourceSize           = 500
	defaultSourceTimeoutSeconds = 30
	defaultSourceMaxBytes       = 16 << 20
	defaultUserAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultStoreBackend         = BackendSQLite
	defaultPayloadURL           = "http://localhost:3000"
	defaultMediaCollection      = "media"
	defaultEntityCollection     = "centres"
	defaultUserCollection       = "users"
	defaultStoreTimeoutSeconds  = 60
	defaultBootstrapEmail       = "dev@payloadcms.com"
	defaultBootstrapPassword    = "test"
	defaultMediaCount           = 95000
	defaultMediaConcurrency     = 20
	defaultEntityCount          = 12000
	defaultEntityConcurrency    = 20
	defaultWindowMultiplier     = 5
	defaultMediaWindowDelayMS   = 500
	defaultEntityWindowDelayMS  = 300
	defaultAltWords             = 3
	defaultGallerySize          = 3
	defaultStaleStagingHours    = 24
	defaultMinFreeMiB           = 512
	defaultNotifyTimeoutSeconds = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Source: Source{
			BaseURL:        defaultSourceBaseURL,
			Width:          defaultSourceSize,
			Height:         defaultSourceSize,
			UserAgent:      defaultUserAgent,
			TimeoutSeconds: defaultSourceTimeoutSeconds,
			MaxBytes:       defaultSourceMaxBytes,
		},
		Store: Store{
			Backend:          defaultStoreBackend,
			SQLitePath:       defaultSQLitePath,
			UploadsDir:       defaultUploadsDir,
			PayloadURL:       defaultPayloadURL,
			MediaCollection:  defaultMediaCollection,
			EntityCollection: defaultEntityCollection,
			UserCollection:   defaultUserCollection,
			TimeoutSeconds:   defaultStoreTimeoutSeconds,
		},
		Bootstrap: Bootstrap{
			Enabled:  true,
			Email:    defaultBootstrapEmail,
			Password: defaultBootstrapPassword,
		},
		Media: Media{
			Count:            defaultMediaCount,
			Concurrency:      defaultMediaConcurrency,
			WindowMultiplier: defaultWindowMultiplier,
			WindowDelayMS:    defaultMediaWindowDelayMS,
			AltWords:         defaultAltWords,
		},
		Entities: Entities{
			Count:            defaultEntityCount,
			Concurrency:      defaultEntityConcurrency,
			WindowMultiplier: defaultWindowMultiplier,
			WindowDelayMS:    defaultEntityWindowDelayMS,
			GallerySize:      defaultGallerySize,
		},
		Seed: Seed{
			StaleStagingHours: defaultStaleStagingHours,
		},
		Preflight: Preflight{
			MinFreeMiB: defaultMinFreeMiB,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
