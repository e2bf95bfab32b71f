package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SentiMatch/internal/domain/models"
	drepo "SentiMatch/internal/domain/repository"
	applogger "SentiMatch/pkg/logger"
	apphttp "SentiMatch/pkg/http"

	"golang.org/x/time/rate"
)

const (
	klinesPath   = "/api/v3/klines"
	defaultLimit = 1000
)

// Client pages through the public klines endpoint.
type Client struct {
	baseURL string
	limit   int
	http    *apphttp.Client
	limiter *rate.Limiter
	l       *applogger.Logger
}

var _ drepo.KlineFetcher = (*Client)(nil)

type Option func(*Client)

// WithLimit sets the page size, capped at the exchange maximum of 1000.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= defaultLimit {
			c.limit = n
		}
	}
}

// WithRequestsPerSecond throttles page requests.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithHTTPClient(h *apphttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

// New creates a klines client for baseURL, e.g. https://api.binance.com.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   defaultLimit,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
		l:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = apphttp.NewClient(apphttp.WithTimeout(15*time.Second), apphttp.WithRetry(3, time.Second))
	}
	return c
}

// FetchKlines downloads [Start, End) page by page. Each page starts one
// millisecond after the previous page's last open time; paging stops at an
// empty or short page or once End is reached.
func (c *Client) FetchKlines(ctx context.Context, r drepo.KlineRange) ([]models.PriceBar, error) {
	if !drepo.IsValidInterval(r.Interval) {
		return nil, fmt.Errorf("unsupported interval %q", r.Interval)
	}
	if !r.Start.Before(r.End) {
		return nil, fmt.Errorf("empty range %s..%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}

	startMs := r.Start.UnixMilli()
	endMs := r.End.UnixMilli()
	var out []models.PriceBar

	for page := 1; startMs < endMs; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		bars, err := c.fetchPage(ctx, r.Symbol, r.Interval, startMs, endMs)
		if err != nil {
			return nil, fmt.Errorf("klines page %d: %w", page, err)
		}
		if len(bars) == 0 {
			break
		}
		out = append(out, bars...)

		last := bars[len(bars)-1].OpenTime.UnixMilli()
		c.l.Debug("klines page fetched",
			applogger.String("symbol", r.Symbol),
			applogger.Int("page", page),
			applogger.Int("bars", len(bars)),
			applogger.Time("last_open", bars[len(bars)-1].OpenTime),
		)
		if len(bars) < c.limit || last >= endMs {
			break
		}
		startMs = last + 1
	}

	c.l.Info("klines fetched",
		applogger.String("symbol", r.Symbol),
		applogger.String("interval", string(r.Interval)),
		applogger.Int("bars", len(out)),
	)
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol string, interval drepo.Interval, startMs, endMs int64) ([]models.PriceBar, error) {
	var raw [][]json.RawMessage
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    c.baseURL + klinesPath,
		QueryParams: map[string][]string{
			"symbol":    {symbol},
			"interval":  {string(interval)},
			"startTime": {strconv.FormatInt(startMs, 10)},
			"endTime":   {strconv.FormatInt(endMs-1, 10)},
			"limit":     {strconv.Itoa(c.limit)},
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(raw))
	for i, row := range raw {
		b, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// parseKline reads [openTime, open, high, low, close, volume, ...]; prices come as strings.
func parseKline(row []json.RawMessage) (models.PriceBar, error) {
	var b models.PriceBar
	if len(row) < 6 {
		return b, fmt.Errorf("kline has %d fields", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return b, fmt.Errorf("open time: %w", err)
	}
	b.OpenTime = time.UnixMilli(openMs).UTC()

	for i, dst := range []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume} {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return b, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("field %d: %w", i+1, err)
		}
		*dst = v
	}
	return b, nil
}
