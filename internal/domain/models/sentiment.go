package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sentiment is a three-way directional label shared by events and price trends.
type Sentiment string

const (
	Bullish       Sentiment = "bullish"
	Bearish       Sentiment = "bearish"
	Consolidation Sentiment = "consolidation"
)

// Sentiments lists labels in lexical order. Majority ties resolve in this order.
var Sentiments = []Sentiment{Bearish, Bullish, Consolidation}

// ParseSentiment accepts any letter case and surrounding whitespace.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case Bullish:
		return Bullish, nil
	case Bearish:
		return Bearish, nil
	case Consolidation:
		return Consolidation, nil
	default:
		return "", fmt.Errorf("unknown sentiment %q", s)
	}
}

// Impact is the predicted market impact of an event.
type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

// ParseImpact accepts any letter case and surrounding whitespace.
func ParseImpact(s string) (Impact, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ImpactLow, nil
	case "medium":
		return ImpactMedium, nil
	case "high":
		return ImpactHigh, nil
	default:
		return "", fmt.Errorf("unknown impact %q", s)
	}
}

// Level selects which events take part in a majority vote.
type Level string

const (
	LevelAll     Level = "all"
	LevelMedHigh Level = "medhigh"
	LevelHigh    Level = "high"
)

// Levels is the fixed reporting order.
var Levels = []Level{LevelAll, LevelMedHigh, LevelHigh}

// Includes reports whether an event with the given impact passes the level filter.
func (l Level) Includes(i Impact) bool {
	switch l {
	case LevelAll:
		return true
	case LevelMedHigh:
		return i == ImpactMedium || i == ImpactHigh
	case LevelHigh:
		return i == ImpactHigh
	default:
		return false
	}
}

// Label is the human-readable name used in summaries.
func (l Level) Label() string {
	switch l {
	case LevelAll:
		return "All Events"
	case LevelMedHigh:
		return "Med+High Events"
	case LevelHigh:
		return "High Only Events"
	default:
		return string(l)
	}
}

// NotApplicable is the rendering of a LevelSentiment with no events behind it.
const NotApplicable = "NA"

// LevelSentiment is either a Sentiment or NotApplicable. The zero value is NotApplicable.
type LevelSentiment struct {
	Value Sentiment
	Valid bool
}

// Some wraps a sentiment as an applicable result.
func Some(s Sentiment) LevelSentiment { return LevelSentiment{Value: s, Valid: true} }

// NA returns the not-applicable marker.
func NA() LevelSentiment { return LevelSentiment{} }

// Matches is true only for an applicable sentiment equal to trend.
func (ls LevelSentiment) Matches(trend Sentiment) bool {
	return ls.Valid && ls.Value == trend
}

func (ls LevelSentiment) String() string {
	if !ls.Valid {
		return NotApplicable
	}
	return string(ls.Value)
}

// MarshalJSON renders NotApplicable as null.
func (ls LevelSentiment) MarshalJSON() ([]byte, error) {
	if !ls.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(string(ls.Value))
}

func (ls *LevelSentiment) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*ls = NA()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == NotApplicable {
		*ls = NA()
		return nil
	}
	v, err := ParseSentiment(s)
	if err != nil {
		return err
	}
	*ls = Some(v)
	return nil
}
