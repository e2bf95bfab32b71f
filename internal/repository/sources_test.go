package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestFileEventSourceLoadsAndSkips(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "ALL", "a.json"),
		`{"original_time": "2024-01-01T00:01:00Z", "analysis": {"sentiment": "Bullish", "predicted_impact": "high"}}`)
	writeFile(t, filepath.Join(base, "ALL", "b.json"),
		`{"original_time": 1704067380, "analysis": {"sentiment": "bearish", "predicted_impact": "Low"}}`)
	writeFile(t, filepath.Join(base, "ALL", "broken.json"), `{not json`)
	writeFile(t, filepath.Join(base, "ALL", "notes.txt"), `ignored`)
	writeFile(t, filepath.Join(base, "BTC", "c.json"),
		`{"original_time": "2024-01-01 00:04:00", "analysis": {"sentiment": "euphoric", "predicted_impact": "High"}}`)
	writeFile(t, filepath.Join(base, "BTC", "d.json"),
		`{"analysis": {"sentiment": "bullish", "predicted_impact": "Medium"}}`)

	src := NewFileEventSource(base, []string{"ALL", "BTC", "MISSING"}, nil)
	events, err := src.LoadEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	byTime := map[time.Time]models.Event{}
	for _, e := range events {
		byTime[e.Timestamp] = e
	}
	first := byTime[time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)]
	assert.Equal(t, models.Bullish, first.Sentiment)
	assert.Equal(t, models.ImpactHigh, first.Impact)
	assert.Equal(t, "ALL", first.Source)

	second := byTime[time.Date(2024, 1, 1, 0, 3, 0, 0, time.UTC)]
	assert.Equal(t, models.Bearish, second.Sentiment)
	assert.Equal(t, models.ImpactLow, second.Impact)
}

func TestFileEventSourceEmpty(t *testing.T) {
	src := NewFileEventSource(t.TempDir(), []string{"ALL"}, nil)
	_, err := src.LoadEvents(context.Background())
	assert.True(t, errors.Is(err, ErrNoEvents))
}

func TestCSVPriceSourceReadsMillisAndDatetime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btc.csv")
	writeFile(t, path, strings.Join([]string{
		"open_time,open,high,low,close,volume,close_time",
		"1704067200000,100,101,99,100.5,12,1704067499999",
		"2024-01-01 00:05:00,100.5,102,100,101,8,1704067799999",
	}, "\n")+"\n")

	bars, err := NewCSVPriceSource(path).LoadBars(context.Background())
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].OpenTime)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), bars[1].OpenTime)
	assert.Equal(t, 8.0, bars[1].Volume)
}

func TestCSVPriceSourceRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing column": "open_time,high\n1704067200000,1\n",
		"bad price":      "open_time,open,close\n1704067200000,abc,1\n",
		"bad time":       "open_time,open,close\nyesterday,1,1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "p.csv")
			writeFile(t, path, body)
			_, err := NewCSVPriceSource(path).LoadBars(context.Background())
			assert.Error(t, err)
		})
	}
	_, err := NewCSVPriceSource(filepath.Join(t.TempDir(), "none.csv")).LoadBars(context.Background())
	assert.Error(t, err)
}

func TestCSVPriceWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVPriceWriter(dir, "binance")
	bars := []models.PriceBar{
		{OpenTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{OpenTime: time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), Open: 1.5, High: 1.75, Low: 1.25, Close: 1.25, Volume: 3},
	}
	require.NoError(t, w.WriteBars(context.Background(), "BTCUSDT", domrepo.Interval5m, bars))

	path := w.Path("BTCUSDT", domrepo.Interval5m)
	assert.Equal(t, filepath.Join(dir, "binance_BTCUSDT_5m.csv"), path)

	got, err := NewCSVPriceSource(path).LoadBars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}
