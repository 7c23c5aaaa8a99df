package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"payloadseed/internal/batch"
	"payloadseed/internal/config"
	"payloadseed/internal/contentstore"
	"payloadseed/internal/fetcher"
	"payloadseed/internal/gate"
	"payloadseed/internal/logging"
	"payloadseed/internal/services"
)

// StageOptions parameterizes one stage.
type StageOptions struct {
	Count            int
	Concurrency      int
	WindowMultiplier int
	Delay            time.Duration
}

// Options configures a Pipeline.
type Options struct {
	RunID       string
	Media       StageOptions
	Entities    StageOptions
	AltWords    int
	GallerySize int
	Source      fetcher.URLBuilder
	// Bootstrap, when set, is ensured before seeding starts.
	Bootstrap *contentstore.UserInput
}

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Store   contentstore.Store
	Fetcher fetcher.Fetcher
	Stager  Stager
	Rand    *Rand
	Logger  *slog.Logger
	Sleep   batch.SleepFunc
}

// Pipeline orchestrates the media and entity stages.
type Pipeline struct {
	opts Options
	deps Deps
}

// New validates opts and returns a Pipeline.
func New(opts Options, deps Deps) (*Pipeline, error) {
	if deps.Store == nil || deps.Fetcher == nil || deps.Stager == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "store, fetcher, and stager are required", nil)
	}
	for name, stage := range map[string]StageOptions{StageMedia: opts.Media, StageEntities: opts.Entities} {
		if stage.Count < 0 {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", fmt.Sprintf("%s count must be >= 0", name), nil)
		}
		if stage.Concurrency < 1 || stage.WindowMultiplier < 1 {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", fmt.Sprintf("%s concurrency and window multiplier must be >= 1", name), nil)
		}
	}
	if opts.GallerySize < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "gallery size must be >= 0", nil)
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	if deps.Rand == nil {
		deps.Rand = NewRand(0)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Pipeline{opts: opts, deps: deps}, nil
}

// OptionsFromConfig maps the config sections onto pipeline options.
func OptionsFromConfig(cfg *config.Config, runID string) Options {
	opts := Options{
		RunID: runID,
		Media: StageOptions{
			Count:            cfg.Media.Count,
			Concurrency:      cfg.Media.Concurrency,
			WindowMultiplier: cfg.Media.WindowMultiplier,
			Delay:            cfg.MediaWindowDelay(),
		},
		Entities: StageOptions{
			Count:            cfg.Entities.Count,
			Concurrency:      cfg.Entities.Concurrency,
			WindowMultiplier: cfg.Entities.WindowMultiplier,
			Delay:            cfg.EntityWindowDelay(),
		},
		AltWords:    cfg.Media.AltWords,
		GallerySize: cfg.Entities.GallerySize,
		Source: fetcher.URLBuilder{
			BaseURL: cfg.Source.BaseURL,
			Width:   cfg.Source.Width,
			Height:  cfg.Source.Height,
		},
	}
	if cfg.Bootstrap.Enabled {
		opts.Bootstrap = &contentstore.UserInput{Email: cfg.Bootstrap.Email, Password: cfg.Bootstrap.Password}
	}
	return opts
}

// NewRunID returns a short unique run identifier.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// RunID returns the identifier of this pipeline's run.
func (p *Pipeline) RunID() string { return p.opts.RunID }

// Run executes the pipeline. It returns ErrNoMediaCreated when the media
// stage produced nothing, and the context error when ctx ended the run.
// The report is always returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	ctx = services.WithRunID(ctx, p.opts.RunID)
	base := logging.WithContext(ctx, p.deps.Logger)
	logger := logging.NewComponentLogger(base, "pipeline")
	report := &Report{
		RunID:     p.opts.RunID,
		Seed:      p.deps.Rand.Seed(),
		StartedAt: time.Now(),
		Media:     newStageReport(StageMedia, p.opts.Media.Count),
		Entities:  newStageReport(StageEntities, p.opts.Entities.Count),
	}
	defer func() { report.FinishedAt = time.Now() }()

	logger.Info("seeding started",
		logging.Int("media", p.opts.Media.Count),
		logging.Int("centres", p.opts.Entities.Count),
		logging.Any("seed", report.Seed),
		logging.String(logging.FieldEventType, "run_start"),
	)

	p.ensureUser(ctx, logger, report)

	mediaGate, err := gate.New(p.opts.Media.Concurrency)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "pipeline", "media gate", "", err)
	}
	media := &MediaStage{
		Count:            p.opts.Media.Count,
		Gate:             mediaGate,
		WindowMultiplier: p.opts.Media.WindowMultiplier,
		Delay:            p.opts.Media.Delay,
		AltWords:         p.opts.AltWords,
		Store:            p.deps.Store,
		Fetcher:          p.deps.Fetcher,
		Stager:           p.deps.Stager,
		URLs:             p.opts.Source,
		Rand:             p.deps.Rand,
		Logger:           base,
		Sleep:            p.deps.Sleep,
	}
	frozen, mediaReport, err := media.Run(ctx)
	report.Media = mediaReport
	if err != nil {
		return report, err
	}

	if frozen.Len() == 0 {
		report.Entities.Skipped = true
		logging.ErrorWithContext(logger, "no media items were created; cannot proceed with creating centres", "run_aborted",
			logging.Int("media_failed", mediaReport.Failed),
			logging.String(logging.FieldErrorHint, "run payloadseed preflight to check the image source and content store"),
		)
		return report, ErrNoMediaCreated
	}
	report.EntitiesAllowed = true

	entityGate, err := gate.New(p.opts.Entities.Concurrency)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "pipeline", "entity gate", "", err)
	}
	entities := &EntityStage{
		Count:            p.opts.Entities.Count,
		Gate:             entityGate,
		WindowMultiplier: p.opts.Entities.WindowMultiplier,
		Delay:            p.opts.Entities.Delay,
		GallerySize:      p.opts.GallerySize,
		Media:            frozen,
		Store:            p.deps.Store,
		Rand:             p.deps.Rand,
		Logger:           base,
		Sleep:            p.deps.Sleep,
	}
	entityReport, err := entities.Run(ctx)
	report.Entities = entityReport
	if err != nil {
		return report, err
	}

	logger.Info("seeding complete",
		logging.Int("media_created", report.Media.Succeeded),
		logging.Int("centres_created", report.Entities.Succeeded),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return report, nil
}

func (p *Pipeline) ensureUser(ctx context.Context, logger *slog.Logger, report *Report) {
	if p.opts.Bootstrap == nil {
		return
	}
	created, err := p.deps.Store.EnsureUser(ctx, *p.opts.Bootstrap)
	if err != nil {
		report.UserError = err.Error()
		logging.WarnWithContext(logger, "bootstrap user not ensured", "bootstrap_user_failed",
			logging.String("email", p.opts.Bootstrap.Email),
			logging.Error(err),
			logging.String(logging.FieldImpact, "seeding continues without the bootstrap user"),
		)
		return
	}
	report.UserCreated = created
	if created {
		logger.Info("bootstrap user created", logging.String("email", p.opts.Bootstrap.Email), logging.String(logging.FieldEventType, "bootstrap_user_created"))
		return
	}
	logger.Debug("bootstrap user already present", logging.String("email", p.opts.Bootstrap.Email))
}
