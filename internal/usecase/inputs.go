package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SentiMatch/internal/domain/models"
	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/services/matchrate"
	applogger "SentiMatch/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// InputLoader reads events and bars once and shares the indexed result.
type InputLoader struct {
	events     drepo.EventSource
	prices     drepo.PriceSource
	resolution time.Duration
	l          *applogger.Logger

	mu     sync.Mutex
	loaded *matchrate.Inputs
}

func NewInputLoader(events drepo.EventSource, prices drepo.PriceSource, resolution time.Duration, l *applogger.Logger) *InputLoader {
	if l == nil {
		l = applogger.Nop()
	}
	return &InputLoader{events: events, prices: prices, resolution: resolution, l: l}
}

// Load returns the cached inputs, reading both sources concurrently on first use.
// A failed load is not cached.
func (x *InputLoader) Load(ctx context.Context) (*matchrate.Inputs, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.loaded != nil {
		return x.loaded, nil
	}

	start := time.Now()
	var (
		events []models.Event
		bars   []models.PriceBar
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = x.events.LoadEvents(gctx)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bars, err = x.prices.LoadBars(gctx)
		if err != nil {
			return fmt.Errorf("load prices: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in, err := matchrate.NewInputs(events, bars, x.resolution)
	if err != nil {
		return nil, fmt.Errorf("index inputs: %w", err)
	}
	x.l.Info("inputs loaded",
		applogger.Int("events", in.Events.Len()),
		applogger.Int("bars", in.Prices.Len()),
		applogger.Int("duplicate_bars", in.Prices.Duplicates()),
		applogger.Time("first_bar", in.Prices.Min()),
		applogger.Time("last_bar", in.Prices.Max()),
		applogger.Duration("took", time.Since(start)),
	)
	x.loaded = in
	return in, nil
}
