package matchrate

import (
	"context"
	"time"

	"SentiMatch/internal/domain/models"

	"golang.org/x/sync/errgroup"
)

// ScenarioHook observes each finished scenario. It may be called from several
// goroutines when the sweep runs concurrently.
type ScenarioHook func(idx int, res *models.ScenarioResult)

// RunSweep evaluates every grid point. Results keep grid order regardless of Workers.
func RunSweep(ctx context.Context, in *Inputs, cfg SweepConfig, hook ScenarioHook) (models.SweepResult, error) {
	if err := cfg.Validate(); err != nil {
		return models.SweepResult{}, err
	}
	if in == nil || in.Prices == nil || in.Prices.Len() == 0 {
		return models.SweepResult{}, ErrEmptyPriceSeries
	}
	if in.Events == nil {
		in = &Inputs{Events: NewEventIndex(nil), Prices: in.Prices}
	}

	grid := cfg.Grid()
	out := make([]models.ScenarioResult, len(grid))

	eval := func(i int) {
		start := time.Now()
		res := EvaluateScenario(in, grid[i], cfg.ThresholdPct)
		res.Duration = time.Since(start)
		res.EvaluatedAt = time.Now().UTC()
		out[i] = res
		if hook != nil {
			hook(i, &out[i])
		}
	}

	if cfg.Workers < 2 {
		for i := range grid {
			if err := ctx.Err(); err != nil {
				return models.SweepResult{}, err
			}
			eval(i)
		}
		return models.SweepResult{Scenarios: out}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eval(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SweepResult{}, err
	}
	return models.SweepResult{Scenarios: out}, nil
}
