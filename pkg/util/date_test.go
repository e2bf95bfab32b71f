package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeOffsetIsUTC(t *testing.T) {
	got, ok := ParseTime("2024-10-10T12:10:10+02:00")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Location() != time.UTC || got.Hour() != 10 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeNaive(t *testing.T) {
	for _, s := range []string{"2024-10-10 10:10:10", "2024-10-10T10:10:10"} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
	if got := ParseTimeDefault("not a time", def); !got.Equal(def) {
		t.Fatalf("expected default for garbage")
	}
}

func TestParseBarTime(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)
	got, ok := ParseBarTime(strconv.FormatInt(want.UnixMilli(), 10))
	if !ok || !got.Equal(want) {
		t.Fatalf("millis: got %v ok=%v", got, ok)
	}
	got, ok = ParseBarTime("2024-01-01 00:05:00")
	if !ok || !got.Equal(want) {
		t.Fatalf("datetime: got %v ok=%v", got, ok)
	}
}

func TestParseInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"1m": time.Minute,
		"5m": 5 * time.Minute,
		"4h": 4 * time.Hour,
		"1d": 24 * time.Hour,
	}
	for in, want := range cases {
		got, ok := ParseInterval(in)
		if !ok || got != want {
			t.Fatalf("%s: got %v ok=%v", in, got, ok)
		}
	}
	if _, ok := ParseInterval("xm"); ok {
		t.Fatalf("expected failure")
	}
}

func TestIntOr(t *testing.T) {
	cases := map[string]int{"": 4, "12": 12, " 7 ": 7, "x": 4, "-3": -3}
	for in, want := range cases {
		if got := IntOr(in, 4); got != want {
			t.Fatalf("IntOr(%q) = %d, want %d", in, got, want)
		}
	}
}
