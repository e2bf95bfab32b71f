package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	applogger "SentiMatch/pkg/logger"
)

const insertChunkSize = 2000

// CHPriceStore reads and writes klines in the price_bars table.
type CHPriceStore struct {
	db       *sql.DB
	table    string
	symbol   string
	interval domrepo.Interval
	l        *applogger.Logger
}

var (
	_ domrepo.PriceSource = (*CHPriceStore)(nil)
	_ domrepo.PriceWriter = (*CHPriceStore)(nil)
)

// NewCHPriceStore binds the store to one symbol and interval for LoadBars.
func NewCHPriceStore(db *sql.DB, database, symbol string, interval domrepo.Interval) *CHPriceStore {
	return &CHPriceStore{
		db:       db,
		table:    database + ".price_bars",
		symbol:   symbol,
		interval: interval,
		l:        applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) LoadBars(ctx context.Context) ([]models.PriceBar, error) {
	const qtpl = `
        SELECT open_time, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND interval = ?
        ORDER BY open_time ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	fields := []applogger.Field{
		applogger.String("table", s.table),
		applogger.String("symbol", s.symbol),
		applogger.String("interval", string(s.interval)),
	}

	rows, err := s.db.QueryContext(ctx, q, s.symbol, string(s.interval))
	if err != nil {
		s.l.Error("clickhouse load_bars query error", append(fields, applogger.Error(err))...)
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 4096)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.OpenTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.l.Error("clickhouse load_bars scan error", append(fields, applogger.Error(err))...)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.OpenTime = b.OpenTime.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse load_bars rows error", append(fields, applogger.Error(err))...)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// WriteBars inserts with multi-row VALUES in chunks. The table deduplicates
// on (symbol, interval, open_time), so re-fetching a range is harmless.
func (s *CHPriceStore) WriteBars(ctx context.Context, symbol string, interval domrepo.Interval, bars []models.PriceBar) error {
	for start := 0; start < len(bars); start += insertChunkSize {
		end := min(start+insertChunkSize, len(bars))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, string(interval), b.OpenTime.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, interval, open_time, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse write_bars error",
				applogger.String("table", s.table),
				applogger.Int("chunk_start", start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return nil
}

// CHEventStore reads labeled events from the events table.
type CHEventStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.EventSource = (*CHEventStore)(nil)

func NewCHEventStore(db *sql.DB, database string) *CHEventStore {
	return &CHEventStore{db: db, table: database + ".events", l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHEventStore) SetLogger(l *applogger.Logger) { s.l = l }

// LoadEvents skips rows whose labels do not parse, like the file loader does.
func (s *CHEventStore) LoadEvents(ctx context.Context) ([]models.Event, error) {
	q := fmt.Sprintf("SELECT ts, sentiment, impact, source FROM %s ORDER BY ts ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse load_events query error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var (
		out     []models.Event
		skipped int
	)
	for rows.Next() {
		var (
			ts                   time.Time
			sent, impact, source string
		)
		if err := rows.Scan(&ts, &sent, &impact, &source); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ps, err1 := models.ParseSentiment(sent)
		pi, err2 := models.ParseImpact(impact)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		out = append(out, models.Event{Timestamp: ts.UTC(), Sentiment: ps, Impact: pi, Source: source})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if skipped > 0 {
		s.l.Warn("events with unknown labels skipped", applogger.Int("skipped", skipped))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w from %s", ErrNoEvents, s.table)
	}
	return out, nil
}
