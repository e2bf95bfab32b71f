package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SentiMatch/internal/domain/models"
	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/services/matchrate"
	applogger "SentiMatch/pkg/logger"

	"github.com/google/uuid"
)

// SweepUseCase evaluates the full grid locally and hands results to the sinks.
type SweepUseCase struct {
	inputs  *InputLoader
	cfg     matchrate.SweepConfig
	sink    drepo.ReportSink
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewSweepUseCase(
	inputs *InputLoader,
	cfg matchrate.SweepConfig,
	sink drepo.ReportSink,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *SweepUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &SweepUseCase{inputs: inputs, cfg: cfg, sink: sink, metrics: metrics, l: l}
}

// Run returns the sweep even when a sink failed, together with the joined sink errors.
func (uc *SweepUseCase) Run(ctx context.Context) (*models.SweepResult, error) {
	start := time.Now()
	in, err := uc.inputs.Load(ctx)
	if err != nil {
		uc.metrics.RecordError("load_inputs")
		return nil, err
	}

	runID := uuid.NewString()
	grid := uc.cfg.Grid()
	uc.l.Info("sweep started",
		applogger.String("run_id", runID),
		applogger.Int("scenarios", len(grid)),
		applogger.Int("workers", uc.cfg.Workers),
		applogger.Float64("threshold_pct", uc.cfg.ThresholdPct),
	)

	sweep, err := matchrate.RunSweep(ctx, in, uc.cfg, func(_ int, res *models.ScenarioResult) {
		recordScenario(uc.metrics, res)
		uc.l.Info("scenario evaluated",
			applogger.String("scenario", res.Params.Key()),
			applogger.Int("rows", len(res.Windows)),
			applogger.Int("skipped_no_events", res.Diagnostics.SkippedNoEvents),
			applogger.Int("skipped_missing_price", res.Diagnostics.SkippedMissingPrice),
			applogger.Duration("took", res.Duration),
		)
	})
	if err != nil {
		uc.metrics.RecordError("sweep")
		return nil, fmt.Errorf("run sweep: %w", err)
	}
	sweep.RunID = runID
	for i := range sweep.Scenarios {
		sweep.Scenarios[i].RunID = runID
	}

	var errs []error
	for i := range sweep.Scenarios {
		res := &sweep.Scenarios[i]
		if err := uc.sink.WriteScenario(ctx, res); err != nil {
			uc.metrics.RecordError("write_scenario")
			uc.l.Error("scenario not written", applogger.String("scenario", res.Params.Key()), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if err := uc.sink.Finish(ctx, &sweep); err != nil {
		uc.metrics.RecordError("finish_sweep")
		errs = append(errs, fmt.Errorf("finish sweep: %w", err))
	}

	uc.metrics.RecordLatency("sweep", time.Since(start).Seconds())
	uc.l.Info("sweep finished",
		applogger.String("run_id", runID),
		applogger.Int("sink_errors", len(errs)),
		applogger.Duration("took", time.Since(start)),
	)
	return &sweep, errors.Join(errs...)
}

func recordScenario(m drepo.Metrics, res *models.ScenarioResult) {
	key := res.Params.Key()
	d := res.Diagnostics
	m.RecordScenario(key, len(res.Windows), d.SkippedNoEvents, d.SkippedMissingPrice, d.BoundaryStop, res.Duration.Seconds())
	for _, lvl := range models.Levels {
		if rate, ok := res.Stat(lvl).Rate(); ok {
			m.RecordMatchRate(key, string(lvl), rate)
		}
	}
}
