package matchrate

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"SentiMatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func bars(opens, closes []float64) []models.PriceBar {
	out := make([]models.PriceBar, len(opens))
	for i := range opens {
		out[i] = models.PriceBar{OpenTime: at(i * 5), Open: opens[i], Close: closes[i]}
	}
	return out
}

func flatBars(n int, price float64) []models.PriceBar {
	out := make([]models.PriceBar, n)
	for i := range out {
		out[i] = models.PriceBar{OpenTime: at(i * 5), Open: price, Close: price}
	}
	return out
}

func ev(min int, s models.Sentiment, i models.Impact) models.Event {
	return models.Event{Timestamp: at(min), Sentiment: s, Impact: i}
}

func lbl(s models.Sentiment, i models.Impact) models.EventLabel {
	return models.EventLabel{Sentiment: s, Impact: i}
}

func mustInputs(t *testing.T, events []models.Event, b []models.PriceBar) *Inputs {
	t.Helper()
	in, err := NewInputs(events, b, 5*time.Minute)
	require.NoError(t, err)
	return in
}

func TestTrendFromPricesBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		end   float64
		trend models.Sentiment
	}{
		{"exactly up threshold", 100.1, models.Bullish},
		{"exactly down threshold", 99.9, models.Bearish},
		{"inside band", 100.05, models.Consolidation},
		{"flat", 100, models.Consolidation},
		{"big drop", 90, models.Bearish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.trend, TrendFromPrices(100, tc.end, 0.1))
		})
	}
}

func TestTrendFromPricesZeroStart(t *testing.T) {
	assert.Equal(t, models.Consolidation, TrendFromPrices(0, 50, 0.1))
}

func TestClassifyTrendMissingBar(t *testing.T) {
	in := mustInputs(t, nil, flatBars(3, 100))

	_, ok := ClassifyTrend(in.Prices, models.TimeWindow{Start: at(2), End: at(7)}, 0.1)
	assert.False(t, ok, "start bar not aligned")

	_, ok = ClassifyTrend(in.Prices, models.TimeWindow{Start: at(5), End: at(20)}, 0.1)
	assert.False(t, ok, "end bar past series")

	trend, ok := ClassifyTrend(in.Prices, models.TimeWindow{Start: at(0), End: at(15)}, 0.1)
	require.True(t, ok)
	assert.Equal(t, models.Consolidation, trend)
}

func TestMajoritySentiment(t *testing.T) {
	cases := []struct {
		name   string
		events []models.EventLabel
		level  models.Level
		want   models.LevelSentiment
	}{
		{
			name:   "bullish bearish draw",
			events: []models.EventLabel{lbl(models.Bullish, models.ImpactHigh), lbl(models.Bearish, models.ImpactHigh)},
			level:  models.LevelHigh,
			want:   models.Some(models.Consolidation),
		},
		{
			name:   "empty subset is NA",
			events: []models.EventLabel{lbl(models.Bullish, models.ImpactLow)},
			level:  models.LevelHigh,
			want:   models.NA(),
		},
		{
			name:   "no events is NA",
			events: nil,
			level:  models.LevelAll,
			want:   models.NA(),
		},
		{
			name: "plain majority",
			events: []models.EventLabel{
				lbl(models.Bearish, models.ImpactLow),
				lbl(models.Bearish, models.ImpactMedium),
				lbl(models.Bullish, models.ImpactHigh),
			},
			level: models.LevelAll,
			want:  models.Some(models.Bearish),
		},
		{
			name: "medhigh drops low",
			events: []models.EventLabel{
				lbl(models.Bearish, models.ImpactLow),
				lbl(models.Bearish, models.ImpactLow),
				lbl(models.Bullish, models.ImpactMedium),
			},
			level: models.LevelMedHigh,
			want:  models.Some(models.Bullish),
		},
		{
			name: "consolidation wins outright",
			events: []models.EventLabel{
				lbl(models.Consolidation, models.ImpactLow),
				lbl(models.Consolidation, models.ImpactLow),
				lbl(models.Bullish, models.ImpactLow),
			},
			level: models.LevelAll,
			want:  models.Some(models.Consolidation),
		},
		{
			name: "zero zero draw does not apply",
			events: []models.EventLabel{
				lbl(models.Consolidation, models.ImpactHigh),
			},
			level: models.LevelHigh,
			want:  models.Some(models.Consolidation),
		},
		{
			name: "bearish consolidation tie goes lexical",
			events: []models.EventLabel{
				lbl(models.Consolidation, models.ImpactLow),
				lbl(models.Bearish, models.ImpactLow),
			},
			level: models.LevelAll,
			want:  models.Some(models.Bearish),
		},
		{
			name: "bullish consolidation tie goes lexical",
			events: []models.EventLabel{
				lbl(models.Consolidation, models.ImpactLow),
				lbl(models.Bullish, models.ImpactLow),
			},
			level: models.LevelAll,
			want:  models.Some(models.Bullish),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MajoritySentiment(tc.events, tc.level))
		})
	}
}

func TestMajoritySentimentOrderIndependent(t *testing.T) {
	events := []models.EventLabel{
		lbl(models.Consolidation, models.ImpactHigh),
		lbl(models.Bullish, models.ImpactHigh),
		lbl(models.Bearish, models.ImpactLow),
		lbl(models.Bullish, models.ImpactMedium),
		lbl(models.Consolidation, models.ImpactMedium),
	}
	want := MajoritySentiment(events, models.LevelAll)
	rev := slices.Clone(events)
	slices.Reverse(rev)
	assert.Equal(t, want, MajoritySentiment(rev, models.LevelAll))
}

func TestGenerateWindows(t *testing.T) {
	var got []models.TimeWindow
	for w := range GenerateWindows(at(0), at(20), 10*time.Minute) {
		got = append(got, w)
	}
	require.Len(t, got, 2)
	assert.Equal(t, models.TimeWindow{Start: at(0), End: at(10)}, got[0])
	assert.Equal(t, models.TimeWindow{Start: at(10), End: at(20)}, got[1])

	// restartable
	n := 0
	seq := GenerateWindows(at(0), at(21), 10*time.Minute)
	for range seq {
		n++
	}
	for range seq {
		n++
	}
	assert.Equal(t, 6, n)

	for range GenerateWindows(at(0), at(10), 0) {
		t.Fatal("non-positive step must yield nothing")
	}
}

func TestEvaluateScenarioEndToEnd(t *testing.T) {
	in := mustInputs(t,
		[]models.Event{ev(1, models.Bullish, models.ImpactHigh)},
		bars([]float64{100, 101, 99}, []float64{100, 99, 98}),
	)

	res := EvaluateScenario(in, models.ScenarioParams{InputMinutes: 5, OutputMinutes: 5}, 0.1)

	require.Len(t, res.Windows, 1)
	row := res.Windows[0]
	assert.Equal(t, "20240301T0000-20240301T0005", row.WindowID)
	assert.Equal(t, models.Bearish, row.PriceTrend)
	assert.Equal(t, models.Some(models.Bullish), row.SentimentAll)
	assert.Equal(t, models.Some(models.Bullish), row.SentimentMedHigh)
	assert.Equal(t, models.Some(models.Bullish), row.SentimentHigh)
	assert.Equal(t, []models.EventLabel{lbl(models.Bullish, models.ImpactHigh)}, row.Events)

	assert.Equal(t, models.MatchRateStat{Matches: 0, Total: 1}, res.Stats[models.LevelAll])
	assert.Equal(t, models.MatchRateStat{Matches: 0, Total: 1}, res.Stats[models.LevelHigh])
	assert.Equal(t, 1, res.Diagnostics.SkippedNoEvents)
}

func TestEvaluateScenarioSkipsEmptyWindows(t *testing.T) {
	// bars from 00:30 rally, so any row there would be bullish
	b := flatBars(12, 100)
	for i := 6; i < 12; i++ {
		b[i].Open, b[i].Close = 200, 210
	}
	in := mustInputs(t, []models.Event{ev(2, models.Bearish, models.ImpactLow)}, b)

	res := EvaluateScenario(in, models.ScenarioParams{InputMinutes: 5, OutputMinutes: 5}, 0.1)

	require.Len(t, res.Windows, 1)
	assert.Equal(t, "20240301T0000-20240301T0005", res.Windows[0].WindowID)
	assert.Equal(t, models.MatchRateStat{Matches: 0, Total: 1}, res.Stats[models.LevelAll])
}

func TestEvaluateScenarioIndependentDenominators(t *testing.T) {
	in := mustInputs(t,
		[]models.Event{
			ev(0, models.Bullish, models.ImpactLow),
			ev(10, models.Bullish, models.ImpactMedium),
			ev(20, models.Bullish, models.ImpactHigh),
		},
		flatBars(8, 100),
	)

	res := EvaluateScenario(in, models.ScenarioParams{InputMinutes: 10, OutputMinutes: 5}, 0.1)

	require.Len(t, res.Windows, 3)
	assert.Equal(t, 3, res.Stats[models.LevelAll].Total)
	assert.Equal(t, 2, res.Stats[models.LevelMedHigh].Total)
	assert.Equal(t, 1, res.Stats[models.LevelHigh].Total)
	assert.False(t, res.Windows[0].SentimentHigh.Valid)
	assert.Equal(t, models.NotApplicable, res.Windows[0].SentimentMedHigh.String())
}

func TestEvaluateScenarioBoundaryStop(t *testing.T) {
	in := mustInputs(t,
		[]models.Event{ev(0, models.Bullish, models.ImpactHigh), ev(25, models.Bullish, models.ImpactHigh)},
		flatBars(7, 100), // 00:00 .. 00:30
	)

	res := EvaluateScenario(in, models.ScenarioParams{InputMinutes: 5, OutputMinutes: 20}, 0.1)

	// [10,15) prices [15,35) still fits under 00:30 + 5m; [15,20) prices [20,40) stops the loop
	// before the event at 00:25 is ever reached.
	assert.True(t, res.Diagnostics.BoundaryStop)
	assert.Equal(t, 4, res.Diagnostics.WindowsVisited)
	require.Len(t, res.Windows, 1)
	assert.Equal(t, "20240301T0000-20240301T0005", res.Windows[0].WindowID)
}

func TestEvaluateScenarioMissingPriceSkipped(t *testing.T) {
	b := flatBars(6, 100)
	b = append(b[:2], b[3:]...) // drop the 00:10 bar
	in := mustInputs(t,
		[]models.Event{ev(1, models.Bullish, models.ImpactHigh), ev(6, models.Bullish, models.ImpactHigh)},
		b,
	)

	res := EvaluateScenario(in, models.ScenarioParams{InputMinutes: 5, OutputMinutes: 10}, 0.1)

	require.Len(t, res.Windows, 0)
	assert.Equal(t, 2, res.Diagnostics.SkippedMissingPrice)
	assert.Equal(t, 0, res.Stats[models.LevelAll].Total)
}

func TestEvaluateScenarioIdempotent(t *testing.T) {
	in := mustInputs(t,
		[]models.Event{
			ev(0, models.Bullish, models.ImpactHigh),
			ev(3, models.Bearish, models.ImpactMedium),
			ev(12, models.Consolidation, models.ImpactLow),
		},
		bars([]float64{100, 101, 102, 99, 98, 100}, []float64{101, 102, 99, 98, 100, 103}),
	)
	p := models.ScenarioParams{InputMinutes: 5, OutputMinutes: 10}

	a := EvaluateScenario(in, p, 0.1)
	b := EvaluateScenario(in, p, 0.1)
	assert.Equal(t, a, b)
}

func TestSubsetMonotonic(t *testing.T) {
	events := make([]models.Event, 0, 40)
	impacts := []models.Impact{models.ImpactLow, models.ImpactMedium, models.ImpactHigh}
	for i := 0; i < 40; i++ {
		events = append(events, ev(i*7, models.Sentiments[i%3], impacts[(i*5)%3]))
	}
	b := make([]models.PriceBar, 80)
	for i := range b {
		p := 100 + float64(i%7) - 3
		b[i] = models.PriceBar{OpenTime: at(i * 5), Open: p, Close: p + float64(i%3) - 1}
	}
	in := mustInputs(t, events, b)

	cfg := DefaultSweepConfig()
	res, err := RunSweep(context.Background(), in, cfg, nil)
	require.NoError(t, err)
	for _, sc := range res.Scenarios {
		all, mh, hi := sc.Stats[models.LevelAll], sc.Stats[models.LevelMedHigh], sc.Stats[models.LevelHigh]
		assert.LessOrEqual(t, hi.Total, mh.Total, sc.Params.String())
		assert.LessOrEqual(t, mh.Total, all.Total, sc.Params.String())
		for _, st := range []models.MatchRateStat{all, mh, hi} {
			assert.GreaterOrEqual(t, st.Matches, 0)
			assert.LessOrEqual(t, st.Matches, st.Total)
		}
	}
}

func TestRunSweepOrderAndConcurrency(t *testing.T) {
	in := mustInputs(t,
		[]models.Event{ev(0, models.Bullish, models.ImpactHigh), ev(40, models.Bearish, models.ImpactMedium)},
		flatBars(100, 100),
	)
	cfg := DefaultSweepConfig()

	seq, err := RunSweep(context.Background(), in, cfg, nil)
	require.NoError(t, err)
	require.Len(t, seq.Scenarios, 30)
	assert.Equal(t, models.ScenarioParams{InputMinutes: 5, OutputMinutes: 10}, seq.Scenarios[0].Params)
	assert.Equal(t, models.ScenarioParams{InputMinutes: 5, OutputMinutes: 20}, seq.Scenarios[1].Params)
	assert.Equal(t, models.ScenarioParams{InputMinutes: 120, OutputMinutes: 120}, seq.Scenarios[29].Params)

	cfg.Workers = 4
	par, err := RunSweep(context.Background(), in, cfg, nil)
	require.NoError(t, err)
	for i := range seq.Scenarios {
		assert.Equal(t, seq.Scenarios[i].Params, par.Scenarios[i].Params)
		assert.Equal(t, seq.Scenarios[i].Windows, par.Scenarios[i].Windows)
		assert.Equal(t, seq.Scenarios[i].Stats, par.Scenarios[i].Stats)
	}

	got, ok := par.Lookup(models.ScenarioParams{InputMinutes: 60, OutputMinutes: 30})
	require.True(t, ok)
	assert.Equal(t, 60, got.Params.InputMinutes)
}

func TestRunSweepEmptyScenarioIsNotAnError(t *testing.T) {
	in := mustInputs(t, nil, flatBars(10, 100))
	res, err := RunSweep(context.Background(), in, DefaultSweepConfig(), nil)
	require.NoError(t, err)
	for _, sc := range res.Scenarios {
		for _, l := range models.Levels {
			assert.Equal(t, 0, sc.Stats[l].Total)
		}
	}
}

func TestRunSweepFatalConditions(t *testing.T) {
	_, err := NewInputs(nil, nil, 5*time.Minute)
	assert.True(t, errors.Is(err, ErrEmptyPriceSeries))

	in := mustInputs(t, nil, flatBars(3, 100))
	cfg := DefaultSweepConfig()
	cfg.OutputMinutesGrid = nil
	_, err = RunSweep(context.Background(), in, cfg, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	cfg = DefaultSweepConfig()
	cfg.InputMinutesGrid = []int{5, 5}
	_, err = RunSweep(context.Background(), in, cfg, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = RunSweep(context.Background(), &Inputs{}, DefaultSweepConfig(), nil)
	assert.True(t, errors.Is(err, ErrEmptyPriceSeries))
}

func TestRunSweepCancelled(t *testing.T) {
	in := mustInputs(t, nil, flatBars(3, 100))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunSweep(ctx, in, DefaultSweepConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPriceSeriesDuplicatesLastWins(t *testing.T) {
	s, err := NewPriceSeries([]models.PriceBar{
		{OpenTime: at(0), Open: 1, Close: 1},
		{OpenTime: at(0), Open: 2, Close: 2},
		{OpenTime: at(5), Open: 3, Close: 3},
	}, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.Duplicates())
	b, ok := s.Bar(at(0))
	require.True(t, ok)
	assert.Equal(t, 2.0, b.Open)
	assert.Equal(t, at(0), s.Min())
	assert.Equal(t, at(5), s.Max())
}

func TestEventIndexBetween(t *testing.T) {
	x := NewEventIndex([]models.Event{
		ev(10, models.Bearish, models.ImpactLow),
		ev(0, models.Bullish, models.ImpactLow),
		ev(5, models.Consolidation, models.ImpactLow),
	})
	got := x.Between(at(0), at(10))
	require.Len(t, got, 2)
	assert.Equal(t, models.Bullish, got[0].Sentiment)
	assert.Equal(t, models.Consolidation, got[1].Sentiment)
	assert.Empty(t, x.Between(at(11), at(20)))
}
