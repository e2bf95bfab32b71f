package usecase

import (
	"context"
	"fmt"
	"time"

	"SentiMatch/internal/domain/models"
	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/services/matchrate"
)

const (
	defaultRowLimit = 500
	maxRowLimit     = 100000
)

// ReportsUseCase serves stored sweep results and ad-hoc evaluations.
type ReportsUseCase struct {
	store            drepo.ReportStore
	inputs           *InputLoader
	defaultThreshold float64
	metrics          drepo.Metrics
}

func NewReportsUseCase(store drepo.ReportStore, inputs *InputLoader, defaultThreshold float64, metrics drepo.Metrics) *ReportsUseCase {
	return &ReportsUseCase{store: store, inputs: inputs, defaultThreshold: defaultThreshold, metrics: metrics}
}

// ScenarioList is the summaries of one run in grid order.
type ScenarioList struct {
	RunID     string                   `json:"run_id"`
	Scenarios []models.ScenarioSummary `json:"scenarios"`
}

// List reads runID, or the latest run when runID is empty.
func (uc *ReportsUseCase) List(ctx context.Context, runID string) (*ScenarioList, error) {
	runID, err := uc.resolveRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	sums, err := uc.store.ListScenarios(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return &ScenarioList{RunID: runID, Scenarios: sums}, nil
}

// Get returns one scenario with a page of its rows.
func (uc *ReportsUseCase) Get(ctx context.Context, req models.ScenarioDetailRequest) (*models.ScenarioDetail, error) {
	runID, err := uc.resolveRun(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	params := models.ScenarioParams{InputMinutes: req.InputMinutes, OutputMinutes: req.OutputMinutes}
	res, err := uc.store.GetScenario(ctx, runID, params)
	if err != nil {
		return nil, fmt.Errorf("get scenario %s: %w", params.Key(), err)
	}
	return &models.ScenarioDetail{
		ScenarioSummary: res.Summary(),
		Windows:         page(res.Windows, req.Offset, req.Limit),
	}, nil
}

// Evaluate runs one scenario on the loaded inputs without storing it.
func (uc *ReportsUseCase) Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.ScenarioDetail, error) {
	threshold := uc.defaultThreshold
	if req.ThresholdPct != nil {
		threshold = *req.ThresholdPct
	}
	in, err := uc.inputs.Load(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	params := models.ScenarioParams{InputMinutes: req.InputMinutes, OutputMinutes: req.OutputMinutes}
	res := matchrate.EvaluateScenario(in, params, threshold)
	res.Duration = time.Since(start)
	res.EvaluatedAt = time.Now().UTC()
	uc.metrics.RecordLatency("evaluate", res.Duration.Seconds())

	out := &models.ScenarioDetail{ScenarioSummary: res.Summary()}
	if req.IncludeRows {
		out.Windows = res.Windows
	}
	return out, nil
}

func (uc *ReportsUseCase) resolveRun(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	latest, err := uc.store.LatestRunID(ctx)
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return latest, nil
}

func page(rows []models.WindowResult, offset, limit int) []models.WindowResult {
	if limit <= 0 {
		limit = defaultRowLimit
	}
	limit = min(limit, maxRowLimit)
	if offset < 0 || offset >= len(rows) {
		return []models.WindowResult{}
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end]
}
