package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "SentiMatch/internal/domain/repository"
	applogger "SentiMatch/pkg/logger"
)

// PriceFetchUseCase downloads klines and stores them with every writer.
type PriceFetchUseCase struct {
	fetcher drepo.KlineFetcher
	writers []drepo.PriceWriter
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewPriceFetchUseCase(fetcher drepo.KlineFetcher, metrics drepo.Metrics, l *applogger.Logger, writers ...drepo.PriceWriter) *PriceFetchUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &PriceFetchUseCase{fetcher: fetcher, writers: writers, metrics: metrics, l: l}
}

// Fetch returns the number of bars stored.
func (uc *PriceFetchUseCase) Fetch(ctx context.Context, r drepo.KlineRange) (int, error) {
	if r.Symbol == "" {
		return 0, fmt.Errorf("symbol required")
	}
	if len(uc.writers) == 0 {
		return 0, fmt.Errorf("no price writer configured")
	}

	start := time.Now()
	bars, err := uc.fetcher.FetchKlines(ctx, r)
	if err != nil {
		uc.metrics.RecordError("fetch_klines")
		return 0, fmt.Errorf("fetch klines: %w", err)
	}
	uc.metrics.RecordLatency("fetch_klines", time.Since(start).Seconds())
	if len(bars) == 0 {
		uc.l.Warn("no klines in range",
			applogger.String("symbol", r.Symbol),
			applogger.Time("start", r.Start),
			applogger.Time("end", r.End),
		)
		return 0, nil
	}

	for _, w := range uc.writers {
		if err := w.WriteBars(ctx, r.Symbol, r.Interval, bars); err != nil {
			uc.metrics.RecordError("write_bars")
			return 0, fmt.Errorf("write bars: %w", err)
		}
	}
	return len(bars), nil
}
