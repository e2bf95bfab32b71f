package usecase

import (
	"context"
	"fmt"

	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/services/matchrate"
	applogger "SentiMatch/pkg/logger"

	"github.com/google/uuid"
)

// DispatchUseCase splits the grid into scenario jobs for remote workers.
type DispatchUseCase struct {
	pub   drepo.ScenarioPublisher
	store drepo.ReportStore
	cfg   matchrate.SweepConfig
	l     *applogger.Logger
}

// NewDispatchUseCase accepts a nil store when no report cache is configured.
func NewDispatchUseCase(pub drepo.ScenarioPublisher, store drepo.ReportStore, cfg matchrate.SweepConfig, l *applogger.Logger) *DispatchUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &DispatchUseCase{pub: pub, store: store, cfg: cfg, l: l}
}

// Dispatch registers the run and enqueues one job per grid point.
func (uc *DispatchUseCase) Dispatch(ctx context.Context) (string, int, error) {
	if err := uc.cfg.Validate(); err != nil {
		return "", 0, err
	}
	runID := uuid.NewString()
	grid := uc.cfg.Grid()

	if uc.store != nil {
		if err := uc.store.SaveRunIndex(ctx, runID, grid); err != nil {
			return "", 0, fmt.Errorf("register run: %w", err)
		}
	}
	if err := uc.pub.PublishScenarios(ctx, runID, uc.cfg.ThresholdPct, grid); err != nil {
		return "", 0, err
	}
	uc.l.Info("scenarios enqueued", applogger.String("run_id", runID), applogger.Int("scenarios", len(grid)))
	return runID, len(grid), nil
}
