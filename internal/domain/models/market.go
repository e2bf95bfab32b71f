package models

import "time"

// Event is one labeled market event. Immutable once loaded.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Sentiment Sentiment `json:"sentiment"`
	Impact    Impact    `json:"impact"`
	Source    string    `json:"source,omitempty"`
}

// Label drops everything but the vote-relevant pair.
func (e Event) Label() EventLabel {
	return EventLabel{Sentiment: e.Sentiment, Impact: e.Impact}
}

// EventLabel is the (sentiment, impact) pair archived with each window row.
type EventLabel struct {
	Sentiment Sentiment `json:"sentiment"`
	Impact    Impact    `json:"impact"`
}

// PriceBar is one OHLCV kline keyed by its open time.
type PriceBar struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}
