package matchrate

import "SentiMatch/internal/domain/models"

// MajoritySentiment votes over the events passing the level filter.
//
// An empty subset is NA. Equal non-zero bullish and bearish counts are a draw and
// yield consolidation. Any other tie for the top count goes to the label that sorts
// first, so the result never depends on event order.
func MajoritySentiment(events []models.EventLabel, level models.Level) models.LevelSentiment {
	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	n := 0
	for _, e := range events {
		if !level.Includes(e.Impact) {
			continue
		}
		counts[e.Sentiment]++
		n++
	}
	if n == 0 {
		return models.NA()
	}

	bull, bear := counts[models.Bullish], counts[models.Bearish]
	if bull > 0 && bull == bear {
		return models.Some(models.Consolidation)
	}

	var best models.Sentiment
	bestN := 0
	for _, s := range models.Sentiments {
		if counts[s] > bestN {
			best, bestN = s, counts[s]
		}
	}
	return models.Some(best)
}
