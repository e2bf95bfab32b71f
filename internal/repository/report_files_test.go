package repository

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SentiMatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() models.ScenarioResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w1 := models.TimeWindow{Start: start, End: start.Add(5 * time.Minute)}
	w2 := models.TimeWindow{Start: w1.End, End: w1.End.Add(5 * time.Minute)}
	return models.ScenarioResult{
		RunID:        "run-1",
		Params:       models.ScenarioParams{InputMinutes: 5, OutputMinutes: 10},
		ThresholdPct: 0.1,
		Windows: []models.WindowResult{
			{
				WindowID:         w1.ID(),
				Window:           w1,
				PriceTrend:       models.Bullish,
				SentimentAll:     models.Some(models.Bullish),
				SentimentMedHigh: models.Some(models.Bullish),
				SentimentHigh:    models.NA(),
				Events: []models.EventLabel{
					{Sentiment: models.Bullish, Impact: models.ImpactMedium},
				},
			},
			{
				WindowID:         w2.ID(),
				Window:           w2,
				PriceTrend:       models.Consolidation,
				SentimentAll:     models.Some(models.Bearish),
				SentimentMedHigh: models.Some(models.Bearish),
				SentimentHigh:    models.Some(models.Bearish),
				Events: []models.EventLabel{
					{Sentiment: models.Bearish, Impact: models.ImpactHigh},
					{Sentiment: models.Bullish, Impact: models.ImpactLow},
				},
			},
		},
		Stats: map[models.Level]models.MatchRateStat{
			models.LevelAll:     {Matches: 1, Total: 2},
			models.LevelMedHigh: {Matches: 1, Total: 2},
			models.LevelHigh:    {Matches: 0, Total: 1},
		},
		EvaluatedAt: start,
	}
}

func TestRenderSummaryFormat(t *testing.T) {
	empty := models.ScenarioResult{Params: models.ScenarioParams{InputMinutes: 120, OutputMinutes: 120}}
	noHigh := sampleResult()
	noHigh.Stats[models.LevelHigh] = models.MatchRateStat{}

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, []models.ScenarioResult{noHigh, empty}))

	rule := strings.Repeat("=", 60)
	want := rule + "\n" +
		"Scenario: Input=5m, Output=10m\n" +
		"(Based on 2 non-empty windows)\n" +
		"  - All Events:      Match Rate: 50.00% (1/2 rows)\n" +
		"  - Med+High Events: Match Rate: 50.00% (1/2 rows)\n" +
		"  - High Only Events: Match Rate: N/A (0 rows)\n" +
		rule + "\n\n" +
		rule + "\n" +
		"Scenario: Input=120m, Output=120m\n" +
		"(No overlapping data, 0 non-empty windows)\n" +
		rule + "\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteScenarioCSV(t *testing.T) {
	res := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, WriteScenarioCSV(&buf, res.Windows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time_window,price_trend,events_list,sentiment_all,sentiment_medhigh,sentiment_high", lines[0])
	assert.Equal(t, `20240101T0000-20240101T0005,bullish,"[['bullish', 'Medium']]",bullish,bullish,NA`, lines[1])
	assert.Equal(t, `20240101T0005-20240101T0010,consolidation,"[['bearish', 'High'], ['bullish', 'Low']]",bearish,bearish,bearish`, lines[2])
}

func TestFormatEventsListEmpty(t *testing.T) {
	assert.Equal(t, "[]", FormatEventsList(nil))
}

func TestFileReportSinkWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileReportSink(dir, nil)
	ctx := context.Background()

	res := sampleResult()
	empty := models.ScenarioResult{Params: models.ScenarioParams{InputMinutes: 60, OutputMinutes: 10}}
	require.NoError(t, sink.WriteScenario(ctx, &res))
	require.NoError(t, sink.WriteScenario(ctx, &empty))
	require.NoError(t, sink.Finish(ctx, &models.SweepResult{RunID: "run-1", Scenarios: []models.ScenarioResult{res, empty}}))

	assert.FileExists(t, filepath.Join(dir, "input_5m_output_10m.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "input_60m_output_10m.csv"))

	summary, err := os.ReadFile(filepath.Join(dir, SummaryFileName))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Scenario: Input=60m, Output=10m\n(No overlapping data, 0 non-empty windows)")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "Match Rate: 66.67% (2/3 rows)", FormatRate(models.MatchRateStat{Matches: 2, Total: 3}))
	assert.Equal(t, "Match Rate: N/A (0 rows)", FormatRate(models.MatchRateStat{}))
}
