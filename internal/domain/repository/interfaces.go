package repository

import (
	"context"
	"errors"
	"time"

	"SentiMatch/internal/domain/models"
)

// ErrNotFound is returned by readers when a run or scenario is unknown.
var ErrNotFound = errors.New("not found")

// EventSource yields every labeled event of the dataset.
type EventSource interface {
	LoadEvents(ctx context.Context) ([]models.Event, error)
}

// PriceSource yields the bar series of the dataset.
type PriceSource interface {
	LoadBars(ctx context.Context) ([]models.PriceBar, error)
}

// PriceWriter persists fetched klines.
type PriceWriter interface {
	WriteBars(ctx context.Context, symbol string, interval Interval, bars []models.PriceBar) error
}

// ReportSink receives evaluated scenarios. WriteScenario may be called from a
// queue worker for a single scenario; Finish only after a complete local sweep.
type ReportSink interface {
	WriteScenario(ctx context.Context, res *models.ScenarioResult) error
	Finish(ctx context.Context, run *models.SweepResult) error
}

// ReportStore keeps evaluated scenarios for later reads.
type ReportStore interface {
	ReportSink
	SaveRunIndex(ctx context.Context, runID string, grid []models.ScenarioParams) error
	LatestRunID(ctx context.Context) (string, error)
	ListScenarios(ctx context.Context, runID string) ([]models.ScenarioSummary, error)
	GetScenario(ctx context.Context, runID string, p models.ScenarioParams) (*models.ScenarioResult, error)
}

// ScenarioPublisher hands scenario jobs to remote workers.
type ScenarioPublisher interface {
	PublishScenarios(ctx context.Context, runID string, thresholdPct float64, grid []models.ScenarioParams) error
}

type Metrics interface {
	RecordScenario(scenario string, rows, skippedNoEvents, skippedMissingPrice int, boundaryStop bool, seconds float64)
	RecordMatchRate(scenario, level string, rate float64)
	RecordJob(jobType, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// KlineRange bounds a kline download, end exclusive.
type KlineRange struct {
	Symbol   string
	Interval Interval
	Start    time.Time
	End      time.Time
}

// KlineFetcher downloads historical klines.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, r KlineRange) ([]models.PriceBar, error)
}
