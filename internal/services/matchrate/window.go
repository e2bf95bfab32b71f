package matchrate

import (
	"iter"
	"time"

	"SentiMatch/internal/domain/models"
)

// GenerateWindows yields consecutive [t, t+step) windows from start while t is before end.
// Each call to the returned sequence starts over from start.
func GenerateWindows(start, end time.Time, step time.Duration) iter.Seq[models.TimeWindow] {
	return func(yield func(models.TimeWindow) bool) {
		if step <= 0 {
			return
		}
		for t := start; t.Before(end); t = t.Add(step) {
			if !yield(models.TimeWindow{Start: t, End: t.Add(step)}) {
				return
			}
		}
	}
}
