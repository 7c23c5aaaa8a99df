package seed

import (
	"context"
	"log/slog"
	"time"

	"payloadseed/internal/batch"
	"payloadseed/internal/contentstore"
	"payloadseed/internal/gate"
	"payloadseed/internal/logging"
	"payloadseed/internal/services"
)

// EntityStage creates Count centres linked to media from Media.
type EntityStage struct {
	Count            int
	Gate             *gate.Gate
	WindowMultiplier int
	Delay            time.Duration
	GallerySize      int

	Media  FrozenMedia
	Store  contentstore.Store
	Rand   *Rand
	Logger *slog.Logger
	Sleep  batch.SleepFunc
}

// Run creates every centre. It returns ErrNoMedia without touching the store
// when the media set is empty.
func (s *EntityStage) Run(ctx context.Context) (StageReport, error) {
	report := newStageReport(StageEntities, s.Count)
	if s.Media.Len() == 0 {
		report.Skipped = true
		return report, ErrNoMedia
	}
	logger := logging.NewComponentLogger(s.Logger, StageEntities).With(logging.String(logging.FieldStage, StageEntities))
	ctx = services.WithStage(ctx, StageEntities)

	logger.Info("starting centres creation",
		logging.Int("items", s.Count),
		logging.Int("concurrency", s.Gate.Limit()),
		logging.Int("media_pool", s.Media.Len()),
		logging.String(logging.FieldEventType, "stage_start"),
	)

	var succeeded int
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
			succeeded += w.Succeeded
			logWindow(logger, sampler, StageEntities, w, succeeded)
		},
	}, func(ctx context.Context, index int) (contentstore.EntityRecord, error) {
		return s.link(services.WithItemIndex(ctx, index), logger, index)
	})

	recordOutcomes(&report, outcomes)
	report.Duration = time.Since(started)
	report.PeakInFlight = s.Gate.Peak()
	if err != nil {
		report.Interrupted = true
	}

	logger.Info("centres creation complete",
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Duration("duration", report.Duration.Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return report, err
}

func (s *EntityStage) link(ctx context.Context, stageLogger *slog.Logger, index int) (contentstore.EntityRecord, error) {
	logger := stageLogger.With(logging.Int(logging.FieldItemIndex, index))
	remaining := s.Count - index - 1

	item := s.Rand.ForItem(streamEntities, index)
	input := contentstore.EntityInput{
		Name:          NewTextGenerator(item).CompanyName(),
		FeaturedImage: s.Media.Sample(item),
		Logo:          s.Media.Sample(item),
		Images:        make([]contentstore.ID, s.GallerySize),
	}
	for i := range input.Images {
		input.Images[i] = s.Media.Sample(item)
	}

	rec, err := s.Store.CreateEntity(ctx, input)
	if err != nil {
		logging.WarnWithContext(logger, "centre creation failed", "entity_item_failed",
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.Int("remaining", remaining),
			logging.String(logging.FieldErrorHint, "check the content store logs"),
		)
		return contentstore.EntityRecord{}, err
	}

	logger.Info("created centre",
		logging.String("id", rec.ID.String()),
		logging.Int("remaining", remaining),
		logging.String(logging.FieldEventType, "entity_created"),
	)
	return rec, nil
}
