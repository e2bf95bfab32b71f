package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	applogger "SentiMatch/pkg/logger"
)

// CHResultSink stores window rows and match rates for SQL analysis.
type CHResultSink struct {
	db           *sql.DB
	windowsTable string
	ratesTable   string
	l            *applogger.Logger
}

var _ domrepo.ReportSink = (*CHResultSink)(nil)

func NewCHResultSink(db *sql.DB, database string) *CHResultSink {
	return &CHResultSink{
		db:           db,
		windowsTable: database + ".window_results",
		ratesTable:   database + ".match_rates",
		l:            applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (s *CHResultSink) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHResultSink) WriteScenario(ctx context.Context, res *models.ScenarioResult) error {
	if err := s.insertWindows(ctx, res); err != nil {
		return err
	}
	return s.insertRates(ctx, res)
}

// Finish is a no-op; every scenario is already stored.
func (s *CHResultSink) Finish(context.Context, *models.SweepResult) error { return nil }

func (s *CHResultSink) insertWindows(ctx context.Context, res *models.ScenarioResult) error {
	rows := res.Windows
	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, w := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				res.RunID,
				uint32(res.Params.InputMinutes),
				uint32(res.Params.OutputMinutes),
				w.Window.Start.UTC(),
				w.Window.End.UTC(),
				string(w.PriceTrend),
				FormatEventsList(w.Events),
				nullableSentiment(w.SentimentAll),
				nullableSentiment(w.SentimentMedHigh),
				nullableSentiment(w.SentimentHigh),
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (run_id, input_minutes, output_minutes, window_start, window_end,
	price_trend, events_list, sentiment_all, sentiment_medhigh, sentiment_high) VALUES %s`,
			s.windowsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert windows error",
				applogger.String("scenario", res.Params.Key()),
				applogger.Int("chunk_start", start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert windows %s: %w", res.Params.Key(), err)
		}
	}
	return nil
}

func (s *CHResultSink) insertRates(ctx context.Context, res *models.ScenarioResult) error {
	values := make([]string, 0, len(models.Levels))
	args := make([]interface{}, 0, len(models.Levels)*9)
	for _, lvl := range models.Levels {
		st := res.Stat(lvl)
		var rate interface{}
		if r, ok := st.Rate(); ok {
			rate = r
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			res.RunID,
			uint32(res.Params.InputMinutes),
			uint32(res.Params.OutputMinutes),
			string(lvl),
			uint64(st.Matches),
			uint64(st.Total),
			rate,
			res.ThresholdPct,
			res.EvaluatedAt.UTC(),
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s (run_id, input_minutes, output_minutes, level, matches, total,
	rate, threshold_pct, evaluated_at) VALUES %s`, s.ratesTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse insert rates error",
			applogger.String("scenario", res.Params.Key()),
			applogger.Error(err),
		)
		return fmt.Errorf("insert rates %s: %w", res.Params.Key(), err)
	}
	return nil
}

func nullableSentiment(ls models.LevelSentiment) interface{} {
	if !ls.Valid {
		return nil
	}
	return string(ls.Value)
}
