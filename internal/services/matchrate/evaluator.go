package matchrate

import (
	"time"

	"SentiMatch/internal/domain/models"
)

// Inputs are the read-only data shared by every scenario of a sweep.
type Inputs struct {
	Events *EventIndex
	Prices *PriceSeries
}

// NewInputs indexes raw events and bars.
func NewInputs(events []models.Event, bars []models.PriceBar, resolution time.Duration) (*Inputs, error) {
	prices, err := NewPriceSeries(bars, resolution)
	if err != nil {
		return nil, err
	}
	return &Inputs{Events: NewEventIndex(events), Prices: prices}, nil
}

// EvaluateScenario walks input windows over the price timeline and emits one row per
// window that has events and a fully priced output window.
//
// Iteration stops for good at the first output window that ends past the last bar's
// close; every later window would end further out.
func EvaluateScenario(in *Inputs, params models.ScenarioParams, thresholdPct float64) models.ScenarioResult {
	var (
		rows  []models.WindowResult
		diag  models.ScenarioDiagnostics
		limit = in.Prices.Max().Add(in.Prices.Resolution())
	)

	for w := range GenerateWindows(in.Prices.Min(), in.Prices.Max(), params.Input()) {
		diag.WindowsVisited++

		priceWindow := models.TimeWindow{Start: w.End, End: w.End.Add(params.Output())}
		if priceWindow.End.After(limit) {
			diag.BoundaryStop = true
			break
		}

		events := in.Events.Between(w.Start, w.End)
		if len(events) == 0 {
			diag.SkippedNoEvents++
			continue
		}

		trend, ok := ClassifyTrend(in.Prices, priceWindow, thresholdPct)
		if !ok {
			diag.SkippedMissingPrice++
			continue
		}

		labels := make([]models.EventLabel, len(events))
		for i, e := range events {
			labels[i] = e.Label()
		}
		rows = append(rows, models.WindowResult{
			WindowID:         w.ID(),
			Window:           w,
			PriceTrend:       trend,
			SentimentAll:     MajoritySentiment(labels, models.LevelAll),
			SentimentMedHigh: MajoritySentiment(labels, models.LevelMedHigh),
			SentimentHigh:    MajoritySentiment(labels, models.LevelHigh),
			Events:           labels,
		})
	}

	return models.ScenarioResult{
		Params:       params,
		ThresholdPct: thresholdPct,
		Windows:      rows,
		Stats:        ComputeStats(rows),
		Diagnostics:  diag,
	}
}

// ComputeStats tallies each level over the rows where that level applied.
func ComputeStats(rows []models.WindowResult) map[models.Level]models.MatchRateStat {
	stats := make(map[models.Level]models.MatchRateStat, len(models.Levels))
	for _, l := range models.Levels {
		var st models.MatchRateStat
		for _, r := range rows {
			s := r.Sentiment(l)
			if !s.Valid {
				continue
			}
			st.Total++
			if s.Matches(r.PriceTrend) {
				st.Matches++
			}
		}
		stats[l] = st
	}
	return stats
}
