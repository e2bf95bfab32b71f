package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	"SentiMatch/pkg/cache"
)

const (
	reportPrefix   = "report"
	latestRunKey   = "report:latest"
	defaultRunTTL  = 24 * time.Hour
	runIndexSuffix = "index"
)

// CacheReportStore keeps results in a cache.Service. Layout:
//
//	report:latest                  -> run id
//	report:{run}:index             -> []ScenarioParams in grid order
//	report:{run}:{input}:{output}  -> ScenarioResult
type CacheReportStore struct {
	c   cache.Service
	ttl time.Duration
}

var _ domrepo.ReportStore = (*CacheReportStore)(nil)

func NewCacheReportStore(c cache.Service, ttl time.Duration) *CacheReportStore {
	if ttl <= 0 {
		ttl = defaultRunTTL
	}
	return &CacheReportStore{c: c, ttl: ttl}
}

func scenarioKey(runID string, p models.ScenarioParams) string {
	return cache.Key(reportPrefix, runID, p.InputMinutes, p.OutputMinutes)
}

func runIndexKey(runID string) string {
	return cache.Key(reportPrefix, runID, runIndexSuffix)
}

func (s *CacheReportStore) WriteScenario(ctx context.Context, res *models.ScenarioResult) error {
	if res.RunID == "" {
		return errors.New("scenario result has no run id")
	}
	if err := s.c.Set(ctx, scenarioKey(res.RunID, res.Params), res, s.ttl); err != nil {
		return fmt.Errorf("cache scenario %s: %w", res.Params.Key(), err)
	}
	return nil
}

// Finish records the run's grid and marks it as the latest run.
func (s *CacheReportStore) Finish(ctx context.Context, run *models.SweepResult) error {
	grid := make([]models.ScenarioParams, len(run.Scenarios))
	for i := range run.Scenarios {
		grid[i] = run.Scenarios[i].Params
	}
	return s.SaveRunIndex(ctx, run.RunID, grid)
}

// SaveRunIndex lets readers enumerate a run before all workers report back.
func (s *CacheReportStore) SaveRunIndex(ctx context.Context, runID string, grid []models.ScenarioParams) error {
	if err := s.c.Set(ctx, runIndexKey(runID), grid, s.ttl); err != nil {
		return fmt.Errorf("cache run index: %w", err)
	}
	if err := s.c.Set(ctx, latestRunKey, runID, s.ttl); err != nil {
		return fmt.Errorf("cache latest run: %w", err)
	}
	return nil
}

func (s *CacheReportStore) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	if err := s.c.Get(ctx, latestRunKey, &runID); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", domrepo.ErrNotFound
		}
		return "", err
	}
	return runID, nil
}

// ListScenarios returns summaries in grid order, omitting scenarios not yet written.
func (s *CacheReportStore) ListScenarios(ctx context.Context, runID string) ([]models.ScenarioSummary, error) {
	var grid []models.ScenarioParams
	if err := s.c.Get(ctx, runIndexKey(runID), &grid); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, err
	}

	out := make([]models.ScenarioSummary, 0, len(grid))
	for _, p := range grid {
		res, err := s.GetScenario(ctx, runID, p)
		if errors.Is(err, domrepo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, res.Summary())
	}
	return out, nil
}

func (s *CacheReportStore) GetScenario(ctx context.Context, runID string, p models.ScenarioParams) (*models.ScenarioResult, error) {
	res, err := cache.GetTyped[models.ScenarioResult](ctx, s.c, scenarioKey(runID, p))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}
