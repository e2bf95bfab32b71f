package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// WindowIDLayout formats both ends of a window id, e.g. 20240101T0000-20240101T0005.
const WindowIDLayout = "20060102T1504"

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports Start <= t < End.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ID renders the window as start-end in UTC.
func (w TimeWindow) ID() string {
	return w.Start.UTC().Format(WindowIDLayout) + "-" + w.End.UTC().Format(WindowIDLayout)
}

// ScenarioParams is one point of the input/output grid.
type ScenarioParams struct {
	InputMinutes  int `json:"input_minutes"`
	OutputMinutes int `json:"output_minutes"`
}

func (p ScenarioParams) Input() time.Duration { return time.Duration(p.InputMinutes) * time.Minute }
func (p ScenarioParams) Output() time.Duration { return time.Duration(p.OutputMinutes) * time.Minute }

// Key is the file-name friendly identifier, e.g. input_5m_output_10m.
func (p ScenarioParams) Key() string {
	return fmt.Sprintf("input_%dm_output_%dm", p.InputMinutes, p.OutputMinutes)
}

func (p ScenarioParams) String() string {
	return fmt.Sprintf("Input=%dm, Output=%dm", p.InputMinutes, p.OutputMinutes)
}

// WindowResult is one analysis row. Never mutated after creation.
type WindowResult struct {
	WindowID         string         `json:"time_window"`
	Window           TimeWindow     `json:"window"`
	PriceTrend       Sentiment      `json:"price_trend"`
	SentimentAll     LevelSentiment `json:"sentiment_all"`
	SentimentMedHigh LevelSentiment `json:"sentiment_medhigh"`
	SentimentHigh    LevelSentiment `json:"sentiment_high"`
	Events           []EventLabel   `json:"events_list"`
}

// Sentiment returns the row's value for one level.
func (r WindowResult) Sentiment(l Level) LevelSentiment {
	switch l {
	case LevelAll:
		return r.SentimentAll
	case LevelMedHigh:
		return r.SentimentMedHigh
	case LevelHigh:
		return r.SentimentHigh
	default:
		return NA()
	}
}

// MatchRateStat counts rows where a level applied and where it matched the trend.
type MatchRateStat struct {
	Matches int `json:"matches"`
	Total   int `json:"total"`
}

// Rate is Matches/Total, or false when no row applied.
func (s MatchRateStat) Rate() (float64, bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(s.Matches) / float64(s.Total), true
}

func (s MatchRateStat) MarshalJSON() ([]byte, error) {
	out := struct {
		Matches int      `json:"matches"`
		Total   int      `json:"total"`
		Rate    *float64 `json:"rate"`
	}{Matches: s.Matches, Total: s.Total}
	if r, ok := s.Rate(); ok {
		out.Rate = &r
	}
	return json.Marshal(out)
}

// ScenarioDiagnostics explains where generated windows went.
type ScenarioDiagnostics struct {
	WindowsVisited      int  `json:"windows_visited"`
	SkippedNoEvents     int  `json:"skipped_no_events"`
	SkippedMissingPrice int  `json:"skipped_missing_price"`
	BoundaryStop        bool `json:"boundary_stop"`
}

// ScenarioResult is everything one scenario evaluation produced.
type ScenarioResult struct {
	RunID        string                  `json:"run_id,omitempty"`
	Params       ScenarioParams          `json:"params"`
	ThresholdPct float64                 `json:"threshold_pct"`
	Windows      []WindowResult          `json:"windows"`
	Stats        map[Level]MatchRateStat `json:"stats"`
	Diagnostics  ScenarioDiagnostics     `json:"diagnostics"`
	Duration     time.Duration           `json:"duration_ns"`
	EvaluatedAt  time.Time               `json:"evaluated_at"`
}

// Stat returns the zero stat for levels that were never filled.
func (r *ScenarioResult) Stat(l Level) MatchRateStat {
	if r == nil || r.Stats == nil {
		return MatchRateStat{}
	}
	return r.Stats[l]
}

// Summary drops the per-window rows.
func (r *ScenarioResult) Summary() ScenarioSummary {
	stats := make(map[Level]MatchRateStat, len(Levels))
	for _, l := range Levels {
		stats[l] = r.Stat(l)
	}
	return ScenarioSummary{
		RunID:        r.RunID,
		Params:       r.Params,
		ThresholdPct: r.ThresholdPct,
		Rows:         len(r.Windows),
		Stats:        stats,
		Diagnostics:  r.Diagnostics,
		EvaluatedAt:  r.EvaluatedAt,
	}
}

// ScenarioSummary is the row-less view published to queues and the API.
type ScenarioSummary struct {
	RunID        string                  `json:"run_id,omitempty"`
	Params       ScenarioParams          `json:"params"`
	ThresholdPct float64                 `json:"threshold_pct"`
	Rows         int                     `json:"rows"`
	Stats        map[Level]MatchRateStat `json:"stats"`
	Diagnostics  ScenarioDiagnostics     `json:"diagnostics"`
	EvaluatedAt  time.Time               `json:"evaluated_at"`
}

// SweepResult holds scenarios in grid order, input-major.
type SweepResult struct {
	RunID     string           `json:"run_id"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// Lookup finds a scenario by its parameters.
func (s *SweepResult) Lookup(p ScenarioParams) (*ScenarioResult, bool) {
	for i := range s.Scenarios {
		if s.Scenarios[i].Params == p {
			return &s.Scenarios[i], true
		}
	}
	return nil, false
}

// ScenarioJob is the queue payload asking a worker to evaluate one grid point.
type ScenarioJob struct {
	RunID         string  `json:"run_id"`
	InputMinutes  int     `json:"input_minutes"`
	OutputMinutes int     `json:"output_minutes"`
	ThresholdPct  float64 `json:"threshold_pct"`
}

// Params extracts the grid point.
func (j ScenarioJob) Params() ScenarioParams {
	return ScenarioParams{InputMinutes: j.InputMinutes, OutputMinutes: j.OutputMinutes}
}

// ScenarioJobType is the queue message type carrying a ScenarioJob.
const ScenarioJobType = "scenario.evaluate"
