package repository

import (
	"fmt"
	"time"

	"SentiMatch/pkg/util"
)

// Interval is an exchange kline resolution such as "5m".
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var supportedIntervals = map[Interval]struct{}{
	Interval1m: {}, Interval3m: {}, Interval5m: {}, Interval15m: {}, Interval30m: {},
	Interval1h: {}, Interval2h: {}, Interval4h: {}, Interval1d: {},
}

// IsValidInterval returns true if iv is a supported kline interval.
func IsValidInterval(iv Interval) bool {
	_, ok := supportedIntervals[iv]
	return ok
}

// DefaultInterval returns the default interval.
func DefaultInterval() Interval { return Interval5m }

// ParseInterval validates a raw interval; empty means the default.
func ParseInterval(s string) (Interval, error) {
	if s == "" {
		return DefaultInterval(), nil
	}
	iv := Interval(s)
	if !IsValidInterval(iv) {
		return "", fmt.Errorf("unsupported interval %q", s)
	}
	return iv, nil
}

// Duration is the bar length; zero for unknown intervals.
func (iv Interval) Duration() time.Duration {
	if !IsValidInterval(iv) {
		return 0
	}
	d, _ := util.ParseInterval(string(iv))
	return d
}
