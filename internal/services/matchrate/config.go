package matchrate

import (
	"errors"
	"fmt"
	"time"

	"SentiMatch/internal/domain/models"
)

var (
	// ErrInvalidConfig wraps every SweepConfig validation failure.
	ErrInvalidConfig = errors.New("invalid sweep config")
	// ErrEmptyPriceSeries means there is no timeline to evaluate against.
	ErrEmptyPriceSeries = errors.New("price series is empty")
)

// SweepConfig carries every tunable of a sweep. Nothing is read from globals.
type SweepConfig struct {
	ThresholdPct      float64
	PriceResolution   time.Duration
	InputMinutesGrid  []int
	OutputMinutesGrid []int
	// Workers bounds concurrent scenarios; values below 2 run sequentially.
	Workers int
}

// DefaultSweepConfig mirrors the reference experiment grid.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		ThresholdPct:      0.1,
		PriceResolution:   5 * time.Minute,
		InputMinutesGrid:  []int{5, 10, 20, 30, 60, 120},
		OutputMinutesGrid: []int{10, 20, 30, 60, 120},
		Workers:           1,
	}
}

// Validate fails fast on anything that would make the sweep meaningless.
func (c SweepConfig) Validate() error {
	if c.ThresholdPct < 0 {
		return fmt.Errorf("%w: threshold_pct must be >= 0, got %v", ErrInvalidConfig, c.ThresholdPct)
	}
	if c.PriceResolution <= 0 {
		return fmt.Errorf("%w: price_resolution must be positive, got %s", ErrInvalidConfig, c.PriceResolution)
	}
	if err := validateGrid("input_minutes", c.InputMinutesGrid); err != nil {
		return err
	}
	if err := validateGrid("output_minutes", c.OutputMinutesGrid); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func validateGrid(name string, grid []int) error {
	if len(grid) == 0 {
		return fmt.Errorf("%w: %s grid is empty", ErrInvalidConfig, name)
	}
	seen := make(map[int]struct{}, len(grid))
	for _, m := range grid {
		if m <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, m)
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: %s contains %d twice", ErrInvalidConfig, name, m)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// Grid expands the cartesian product, input-major.
func (c SweepConfig) Grid() []models.ScenarioParams {
	out := make([]models.ScenarioParams, 0, len(c.InputMinutesGrid)*len(c.OutputMinutesGrid))
	for _, in := range c.InputMinutesGrid {
		for _, o := range c.OutputMinutesGrid {
			out = append(out, models.ScenarioParams{InputMinutes: in, OutputMinutes: o})
		}
	}
	return out
}
