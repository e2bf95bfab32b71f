package matchrate

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"SentiMatch/internal/domain/models"
)

// PriceSeries is a read-only set of bars keyed by open time.
type PriceSeries struct {
	bars       map[int64]models.PriceBar
	min, max   time.Time
	resolution time.Duration
	duplicates int
}

// NewPriceSeries indexes bars by open time. A later bar with the same open time replaces an earlier one.
func NewPriceSeries(bars []models.PriceBar, resolution time.Duration) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyPriceSeries
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: price_resolution must be positive, got %s", ErrInvalidConfig, resolution)
	}
	s := &PriceSeries{
		bars:       make(map[int64]models.PriceBar, len(bars)),
		resolution: resolution,
	}
	for i, b := range bars {
		b.OpenTime = b.OpenTime.UTC()
		key := b.OpenTime.UnixNano()
		if _, ok := s.bars[key]; ok {
			s.duplicates++
		}
		s.bars[key] = b
		if i == 0 || b.OpenTime.Before(s.min) {
			s.min = b.OpenTime
		}
		if i == 0 || b.OpenTime.After(s.max) {
			s.max = b.OpenTime
		}
	}
	return s, nil
}

// Bar looks up the bar opening exactly at t.
func (s *PriceSeries) Bar(t time.Time) (models.PriceBar, bool) {
	b, ok := s.bars[t.UnixNano()]
	return b, ok
}

// Min is the earliest bar open time.
func (s *PriceSeries) Min() time.Time { return s.min }

// Max is the latest bar open time.
func (s *PriceSeries) Max() time.Time { return s.max }

// Resolution is the bar width the series was built with.
func (s *PriceSeries) Resolution() time.Duration { return s.resolution }

// Len counts distinct bars.
func (s *PriceSeries) Len() int { return len(s.bars) }

// Duplicates counts bars replaced by a later bar with the same open time.
func (s *PriceSeries) Duplicates() int { return s.duplicates }

// EventIndex answers [a, b) range queries over events sorted by time.
type EventIndex struct {
	events []models.Event
}

// NewEventIndex copies and stably sorts events, so equal timestamps keep load order.
func NewEventIndex(events []models.Event) *EventIndex {
	cp := slices.Clone(events)
	for i := range cp {
		cp[i].Timestamp = cp[i].Timestamp.UTC()
	}
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Timestamp.Before(cp[j].Timestamp) })
	return &EventIndex{events: cp}
}

// Between returns events with start <= ts < end. The slice aliases the index and must not be modified.
func (x *EventIndex) Between(start, end time.Time) []models.Event {
	lo := sort.Search(len(x.events), func(i int) bool { return !x.events[i].Timestamp.Before(start) })
	hi := sort.Search(len(x.events), func(i int) bool { return !x.events[i].Timestamp.Before(end) })
	if hi <= lo {
		return nil
	}
	return x.events[lo:hi:hi]
}

func (x *EventIndex) Len() int { return len(x.events) }
