package matchrate

import (
	"SentiMatch/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ClassifyTrend labels the move from the open of the bar at w.Start to the close of
// the last bar inside w. ok is false when either bar is missing.
func ClassifyTrend(prices *PriceSeries, w models.TimeWindow, thresholdPct float64) (models.Sentiment, bool) {
	first, ok := prices.Bar(w.Start)
	if !ok {
		return "", false
	}
	last, ok := prices.Bar(w.End.Add(-prices.Resolution()))
	if !ok {
		return "", false
	}
	return TrendFromPrices(first.Open, last.Close, thresholdPct), true
}

// TrendFromPrices applies the inclusive threshold to the percent move.
// Decimal math keeps 100 -> 100.1 at 0.1% exactly on the boundary.
// Div rounds only a non-terminating quotient, to decimal.DivisionPrecision
// (16) fractional digits. Rounding can flip the comparison only when the exact
// move lies within 1e-16 percentage points of the threshold, below what
// float64 prices resolve.
func TrendFromPrices(start, end, thresholdPct float64) models.Sentiment {
	if start == 0 {
		return models.Consolidation
	}
	ps := decimal.NewFromFloat(start)
	pct := decimal.NewFromFloat(end).Sub(ps).Mul(hundred).Div(ps)
	th := decimal.NewFromFloat(thresholdPct)
	switch {
	case pct.GreaterThanOrEqual(th):
		return models.Bullish
	case pct.LessThanOrEqual(th.Neg()):
		return models.Bearish
	default:
		return models.Consolidation
	}
}
