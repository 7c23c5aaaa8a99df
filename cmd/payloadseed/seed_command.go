package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"payloadseed/internal/config"
	"payloadseed/internal/fetcher"
	"payloadseed/internal/logging"
	"payloadseed/internal/notifications"
	"payloadseed/internal/preflight"
	"payloadseed/internal/seed"
	"payloadseed/internal/services"
	"payloadseed/internal/staging"
)

type seedFlags struct {
	mediaCount        int
	entityCount       int
	mediaConcurrency  int
	entityConcurrency int
	randomSeed        uint64
	skipPreflight     bool
}

type seedOutput struct {
	Report  *seed.Report `json:"report"`
	Summary string       `json:"summary"`
	LogPath string       `json:"log_path"`
	Error   string       `json:"error,omitempty"`
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var flags seedFlags

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create media items, then centres linked to them",
		Long: `Seed fetches images from the configured source, uploads them as media
items, and then creates centres that reference random media for their
featured image, logo, and gallery.

Both stages run in windows of concurrency x window_multiplier items with a
pause between windows. Centres are only created when at least one media item
was uploaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applySeedFlags(cmd, cfg, flags); err != nil {
				return err
			}
			return runSeed(cmd, ctx, cfg, flags.skipPreflight)
		},
	}

	cmd.Flags().IntVar(&flags.mediaCount, "media-count", 0, "Number of media items to create")
	cmd.Flags().IntVar(&flags.entityCount, "entity-count", 0, "Number of centres to create")
	cmd.Flags().IntVar(&flags.mediaConcurrency, "media-concurrency", 0, "Concurrent media uploads")
	cmd.Flags().IntVar(&flags.entityConcurrency, "entity-concurrency", 0, "Concurrent centre creations")
	cmd.Flags().Uint64Var(&flags.randomSeed, "random-seed", 0, "Seed for reproducible text and linking (0 picks one)")
	cmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "Seed even when preflight checks fail")

	return cmd
}

// applySeedFlags overlays explicitly set flags onto cfg and revalidates.
func applySeedFlags(cmd *cobra.Command, cfg *config.Config, flags seedFlags) error {
	changed := cmd.Flags().Changed
	if changed("media-count") {
		cfg.Media.Count = flags.mediaCount
	}
	if changed("entity-count") {
		cfg.Entities.Count = flags.entityCount
	}
	if changed("media-concurrency") {
		cfg.Media.Concurrency = flags.mediaConcurrency
	}
	if changed("entity-concurrency") {
		cfg.Entities.Concurrency = flags.entityConcurrency
	}
	if changed("random-seed") {
		cfg.Seed.RandomSeed = flags.randomSeed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid seed options: %w", err)
	}
	return nil
}

func runSeed(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, skipPreflight bool) error {
	runID := seed.NewRunID()

	logger, closeLogs, logPath, err := newRunLogger(cfg, runID, ctx.JSONMode())
	if err != nil {
		return err
	}
	defer closeLogs()

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "*.log", Exclude: []string{logging.LogFileName}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, logging.RunLogDir), Pattern: "*.jsonl", Exclude: []string{filepath.Base(logPath)}},
	)

	stager, err := staging.NewManager(cfg.Paths.StagingDir, runID)
	if err != nil {
		return err
	}
	if err := stager.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := stager.Close(); err != nil {
			logging.WarnWithContext(logger, "staging cleanup failed", "staging_cleanup_failed",
				logging.String("path", stager.RunDir()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run directory left on disk; remove with payloadseed staging clean"),
			)
		}
	}()
	staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, cfg.StaleStagingAge(), logger, stager.RunDir())

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	source := fetcher.NewFromConfig(cfg)

	if !skipPreflight {
		results := runPreflight(cmd.Context(), cfg, store, source)
		if failed := preflight.Failed(results); len(failed) > 0 {
			if !ctx.JSONMode() {
				printChecks(cmd.ErrOrStderr(), results)
			}
			return services.Wrap(services.ErrConfiguration, "preflight", "run", preflight.Summary(failed), nil)
		}
	}

	pipeline, err := seed.New(seed.OptionsFromConfig(cfg, runID), seed.Deps{
		Store:   store,
		Fetcher: source,
		Stager:  stager,
		Rand:    seed.NewRand(cfg.Seed.RandomSeed),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	if err := notifier.NotifyRunStarted(cmd.Context(), runID, cfg.Media.Count, cfg.Entities.Count); err != nil {
		logging.WarnWithContext(logger, "run start notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "seeding continues without the start notice"),
		)
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, runErr := pipeline.Run(runCtx)
	announceRun(cmd.Context(), notifier, logger, report, runErr)

	if ctx.JSONMode() {
		output := seedOutput{Report: report, Summary: report.Summary(), LogPath: logPath}
		if runErr != nil {
			output.Error = runErr.Error()
		}
		if err := writeJSON(cmd, output); err != nil {
			return err
		}
	} else {
		printSeedReport(cmd.OutOrStdout(), report, logPath)
	}

	if errors.Is(runErr, seed.ErrNoMediaCreated) {
		return fmt.Errorf("seed run %s: %w", runID, runErr)
	}
	return runErr
}

// announceRun sends the completion or failure notice. It uses its own
// deadline so an interrupted run is still reported.
func announceRun(ctx context.Context, notifier notifications.Service, logger *slog.Logger, report *seed.Report, runErr error) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	var err error
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = notifier.NotifyRunFailed(notifyCtx, report.RunID, runErr)
	} else {
		err = notifier.NotifyRunCompleted(notifyCtx, notifications.RunSummary{
			RunID:          report.RunID,
			MediaCreated:   report.Media.Succeeded,
			MediaFailed:    report.Media.Failed,
			CentresCreated: report.Entities.Succeeded,
			CentresFailed:  report.Entities.Failed,
			Duration:       report.Duration(),
			Interrupted:    runErr != nil,
		})
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// newRunLogger builds the console logger plus the per-run JSON log. Console
// output moves to stderr when stdout carries JSON.
func newRunLogger(cfg *config.Config, runID string, jsonMode bool) (*slog.Logger, func(), string, error) {
	var (
		base *slog.Logger
		err  error
	)
	if jsonMode {
		outputs := []string{"stderr", filepath.Join(cfg.Paths.LogDir, logging.LogFileName)}
		base, err = logging.New(logging.Options{
			Level:            cfg.Logging.Level,
			Format:           cfg.Logging.Format,
			OutputPaths:      outputs,
			ErrorOutputPaths: outputs,
		})
	} else {
		base, err = logging.NewFromConfig(cfg)
	}
	if err != nil {
		return nil, nil, "", fmt.Errorf("init logger: %w", err)
	}

	logPath := logging.RunLogPath(cfg.Paths.LogDir, runID)
	handler, closer, err := logging.NewRunFileHandler(logPath, "debug")
	if err != nil {
		return nil, nil, "", err
	}
	return logging.TeeLogger(base, handler), func() { _ = closer.Close() }, logPath, nil
}

func printSeedReport(out io.Writer, report *seed.Report, logPath string) {
	rows := [][]string{stageRow(report.Media), stageRow(report.Entities)}
	fmt.Fprint(out, tableSpec{
		Title:   "Run " + report.RunID,
		Headers: []string{"Stage", "Requested", "Created", "Failed", "Windows", "Peak", "Duration", "Failures"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	}.render())
	if report.UserError != "" {
		fmt.Fprintf(out, "Bootstrap user: failed (%s)\n", report.UserError)
	} else if report.UserCreated {
		fmt.Fprintln(out, "Bootstrap user: created")
	}
	fmt.Fprintf(out, "Random seed: %d\n", report.Seed)
	fmt.Fprintf(out, "Run log: %s\n", logPath)
	fmt.Fprintln(out, report.Summary())
}

func stageRow(r seed.StageReport) []string {
	status := r.Name
	switch {
	case r.Skipped:
		status += " (skipped)"
	case r.Interrupted:
		status += " (interrupted)"
	}
	return []string{
		status,
		strconv.Itoa(r.Requested),
		strconv.Itoa(r.Succeeded),
		strconv.Itoa(r.Failed),
		strconv.Itoa(r.Windows),
		strconv.Itoa(r.PeakInFlight),
		r.Duration.Round(time.Millisecond).String(),
		formatFailures(r),
	}
}

func formatFailures(r seed.StageReport) string {
	kinds := r.FailureKinds()
	if len(kinds) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, r.Failures[kind]))
	}
	return strings.Join(parts, ", ")
}
