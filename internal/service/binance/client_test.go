package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	drepo "SentiMatch/internal/domain/repository"
	apphttp "SentiMatch/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// klineServer serves 5m klines for [startTime, endTime] in pages of limit.
func klineServer(t *testing.T, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, klinesPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "5m", q.Get("interval"))

		start, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("endTime"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))

		step := int64(5 * time.Minute / time.Millisecond)
		first := (start + step - 1) / step * step
		var rows []string
		for ts := first; ts <= end && len(rows) < limit; ts += step {
			rows = append(rows, fmt.Sprintf(`[%d,"1.0","2.0","0.5","1.5","10.25",%d,"0",1,"0","0","0"]`, ts, ts+step-1))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	}))
}

func TestFetchKlinesPages(t *testing.T) {
	var calls int32
	srv := klineServer(t, &calls)
	defer srv.Close()

	c := New(srv.URL, WithLimit(4), WithRequestsPerSecond(1000))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := c.FetchKlines(context.Background(), drepo.KlineRange{
		Symbol:   "BTCUSDT",
		Interval: drepo.Interval5m,
		Start:    start,
		End:      start.Add(50 * time.Minute),
	})
	require.NoError(t, err)

	require.Len(t, bars, 10)
	for i, b := range bars {
		assert.Equal(t, start.Add(time.Duration(i)*5*time.Minute), b.OpenTime)
	}
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, 10.25, bars[9].Volume)
	// 4 + 4 + 2, the short page ends paging
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchKlinesRetriesThrottling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[[1704067200000,"1","1","1","1","1"]]`)
	}))
	defer srv.Close()

	c := New(srv.URL,
		WithRequestsPerSecond(1000),
		WithHTTPClient(apphttp.NewClient(apphttp.WithRetry(2, time.Millisecond))),
	)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := c.FetchKlines(context.Background(), drepo.KlineRange{
		Symbol: "BTCUSDT", Interval: drepo.Interval5m, Start: start, End: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchKlinesRejectsBadInput(t *testing.T) {
	c := New("http://unused")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.FetchKlines(context.Background(), drepo.KlineRange{Symbol: "BTCUSDT", Interval: "7m", Start: start, End: start.Add(time.Hour)})
	assert.Error(t, err)

	_, err = c.FetchKlines(context.Background(), drepo.KlineRange{Symbol: "BTCUSDT", Interval: drepo.Interval5m, Start: start, End: start})
	assert.Error(t, err)
}

func TestParseKlineRejectsShortRows(t *testing.T) {
	_, err := parseKline(nil)
	assert.Error(t, err)
}
