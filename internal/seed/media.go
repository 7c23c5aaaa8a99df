package seed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"payloadseed/internal/batch"
	"payloadseed/internal/contentstore"
	"payloadseed/internal/fetcher"
	"payloadseed/internal/gate"
	"payloadseed/internal/logging"
	"payloadseed/internal/services"
	"payloadseed/internal/staging"
)

// mediaSource is recorded on every seeded media document.
const mediaSource = "picsum"

// Stager writes fetched bytes to disk and removes them again.
type Stager interface {
	Stage(ctx context.Context, index int, data []byte) (*staging.File, error)
	Unstage(f *staging.File) error
}

// MediaStage creates Count media documents.
type MediaStage struct {
	Count            int
	Gate             *gate.Gate
	WindowMultiplier int
	Delay            time.Duration
	AltWords         int

	Store   contentstore.Store
	Fetcher fetcher.Fetcher
	Stager  Stager
	URLs    fetcher.URLBuilder
	Rand    *Rand
	Logger  *slog.Logger
	Sleep   batch.SleepFunc
}

// Run ingests every item and returns the frozen set of created media. The
// error is non-nil only when ctx ended the stage early.
func (s *MediaStage) Run(ctx context.Context) (FrozenMedia, StageReport, error) {
	logger := logging.NewComponentLogger(s.Logger, StageMedia).With(logging.String(logging.FieldStage, StageMedia))
	ctx = services.WithStage(ctx, StageMedia)
	report := newStageReport(StageMedia, s.Count)
	set := &MediaSet{}

	logger.Info("starting media upload",
		logging.Int("items", s.Count),
		logging.Int("concurrency", s.Gate.Limit()),
		logging.Int("window", s.Gate.Limit()*s.WindowMultiplier),
		logging.String(logging.FieldEventType, "stage_start"),
	)

	started := time.Now()
	sampler := logging.NewProgressSampler(10)
	outcomes, err := batch.Run(ctx, batch.Options{
		Total:            s.Count,
		Gate:             s.Gate,
		WindowMultiplier: s.WindowMultiplier,
		Delay:            s.Delay,
		Sleep:            s.Sleep,
		OnWindow: func(w batch.WindowSummary) {
			report.Windows++
			logWindow(logger, sampler, StageMedia, w, set.Len())
		},
	}, func(ctx context.Context, index int) (contentstore.MediaRecord, error) {
		return s.ingest(services.WithItemIndex(ctx, index), logger, set, index)
	})

	frozen := set.Freeze()
	recordOutcomes(&report, outcomes)
	report.Duration = time.Since(started)
	report.PeakInFlight = s.Gate.Peak()
	if err != nil {
		report.Interrupted = true
	}

	logger.Info("media upload complete",
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Duration("duration", report.Duration.Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return frozen, report, err
}

func (s *MediaStage) ingest(ctx context.Context, stageLogger *slog.Logger, set *MediaSet, index int) (contentstore.MediaRecord, error) {
	logger := stageLogger.With(logging.Int(logging.FieldItemIndex, index))
	remaining := s.Count - index - 1

	rec, err := s.createOne(ctx, logger, index)
	if err == nil {
		err = set.Append(index, rec)
	}
	if err != nil {
		hint := "check the image source and content store"
		if fetcher.IsTransient(err) {
			hint = "source throttled or timed out; lower concurrency or set requests_per_second"
		}
		logging.WarnWithContext(logger, "media item failed", "media_item_failed",
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.Int("remaining", remaining),
			logging.String(logging.FieldErrorHint, hint),
		)
		return contentstore.MediaRecord{}, err
	}

	logger.Info("created media item",
		logging.String("id", rec.ID.String()),
		logging.Int("remaining", remaining),
		logging.String(logging.FieldEventType, "media_created"),
	)
	return rec, nil
}

func (s *MediaStage) createOne(ctx context.Context, logger *slog.Logger, index int) (contentstore.MediaRecord, error) {
	item := s.Rand.ForItem(streamMedia, index)
	urls := s.URLs
	urls.Random = item
	text := NewTextGenerator(item)

	data, err := s.Fetcher.Fetch(ctx, urls.Build())
	if err != nil {
		if !errors.Is(err, services.ErrFetch) {
			err = services.Wrap(services.ErrFetch, StageMedia, "fetch", "", err)
		}
		return contentstore.MediaRecord{}, err
	}

	file, err := s.Stager.Stage(ctx, index, data)
	if err != nil {
		return contentstore.MediaRecord{}, err
	}
	defer func() {
		if uerr := s.Stager.Unstage(file); uerr != nil {
			logging.WarnWithContext(logger, "staged file cleanup failed", "staging_cleanup_failed",
				logging.String("path", file.Path),
				logging.Error(uerr),
				logging.String(logging.FieldImpact, "file remains until the run directory is removed"),
			)
		}
	}()

	return s.Store.CreateMedia(ctx, contentstore.MediaInput{
		Alt:      text.AltText(s.AltWords),
		FilePath: file.Path,
		Filename: file.Name,
		MimeType: file.MimeType,
		Source:   mediaSource,
	})
}

func logWindow(logger *slog.Logger, sampler *logging.ProgressSampler, stage string, w batch.WindowSummary, total int) {
	attrs := logging.Args(
		logging.Int("window", w.Number),
		logging.Int("window_succeeded", w.Succeeded),
		logging.Int("window_failed", w.Failed),
		logging.Int("processed", w.Completed),
		logging.Int("requested", w.Total),
		logging.Int("total_successful", total),
		logging.Duration("window_duration", w.Duration.Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	if sampler.ShouldLog(stage, w.Completed, w.Total) {
		logger.Info("batch complete", attrs...)
		return
	}
	logger.Debug("batch complete", attrs...)
}
