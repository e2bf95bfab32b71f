package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SentiMatch/internal/domain/models"
	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/services/matchrate"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// risingBars opens each 5m bar one unit above the last, so every output window is bullish.
func risingBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = models.PriceBar{OpenTime: t0.Add(time.Duration(i) * 5 * time.Minute), Open: p, High: p + 1, Low: p, Close: p + 1}
	}
	return bars
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	calls  int
}

func (f *fakeEvents) LoadEvents(context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.events, f.err
}

type fakePrices struct {
	bars []models.PriceBar
	err  error
}

func (f *fakePrices) LoadBars(context.Context) ([]models.PriceBar, error) { return f.bars, f.err }

func newFixtureLoader() (*InputLoader, *fakeEvents) {
	ev := &fakeEvents{events: []models.Event{
		{Timestamp: t0.Add(time.Minute), Sentiment: models.Bullish, Impact: models.ImpactHigh},
	}}
	return NewInputLoader(ev, &fakePrices{bars: risingBars(13)}, 5*time.Minute, nil), ev
}

func fixtureConfig() matchrate.SweepConfig {
	return matchrate.SweepConfig{
		ThresholdPct:      0.1,
		PriceResolution:   5 * time.Minute,
		InputMinutesGrid:  []int{5},
		OutputMinutesGrid: []int{10, 20},
		Workers:           2,
	}
}

type recordingSink struct {
	mu       sync.Mutex
	written  []models.ScenarioResult
	finished *models.SweepResult
	failKey  string
}

func (s *recordingSink) WriteScenario(_ context.Context, res *models.ScenarioResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Params.Key() == s.failKey {
		return errors.New("disk full")
	}
	s.written = append(s.written, *res)
	return nil
}

func (s *recordingSink) Finish(_ context.Context, run *models.SweepResult) error {
	s.finished = run
	return nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	scenarios map[string]int
	rates     map[string]float64
	errors    []string
}

var _ drepo.Metrics = (*fakeMetrics)(nil)

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{scenarios: map[string]int{}, rates: map[string]float64{}}
}

func (m *fakeMetrics) RecordScenario(scenario string, rows, _, _ int, _ bool, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[scenario] = rows
}

func (m *fakeMetrics) RecordMatchRate(scenario, level string, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[scenario+"/"+level] = rate
}

func (m *fakeMetrics) RecordJob(string, string) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLatency(string, float64) {}
