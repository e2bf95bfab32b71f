package repository

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	applogger "SentiMatch/pkg/logger"
)

// SummaryFileName is written by Finish next to the per-scenario CSVs.
const SummaryFileName = "match_rates_summary.txt"

var windowColumns = []string{
	"time_window", "price_trend", "events_list",
	"sentiment_all", "sentiment_medhigh", "sentiment_high",
}

var summaryRule = strings.Repeat("=", 60)

// FileReportSink writes input_{i}m_output_{o}m.csv per scenario and a text
// summary of every scenario once the sweep finishes.
type FileReportSink struct {
	dir string
	l   *applogger.Logger
}

var _ domrepo.ReportSink = (*FileReportSink)(nil)

func NewFileReportSink(dir string, l *applogger.Logger) *FileReportSink {
	if l == nil {
		l = applogger.Nop()
	}
	return &FileReportSink{dir: dir, l: l}
}

// ScenarioPath is where the CSV for p goes.
func (s *FileReportSink) ScenarioPath(p models.ScenarioParams) string {
	return filepath.Join(s.dir, p.Key()+".csv")
}

// WriteScenario skips scenarios without rows, leaving no empty CSV behind.
func (s *FileReportSink) WriteScenario(_ context.Context, res *models.ScenarioResult) error {
	if len(res.Windows) == 0 {
		s.l.Warn("no overlapping data, csv not written", applogger.String("scenario", res.Params.Key()))
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := s.ScenarioPath(res.Params)
	if err := writeFileAtomic(path, func(w io.Writer) error { return WriteScenarioCSV(w, res.Windows) }); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Finish writes the summary in grid order.
func (s *FileReportSink) Finish(_ context.Context, run *models.SweepResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, SummaryFileName)
	if err := writeFileAtomic(path, func(w io.Writer) error { return RenderSummary(w, run.Scenarios) }); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.l.Info("summary written", applogger.String("path", path), applogger.Int("scenarios", len(run.Scenarios)))
	return nil
}

// WriteScenarioCSV renders rows with NA for levels without events.
func WriteScenarioCSV(w io.Writer, rows []models.WindowResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(windowColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.WindowID,
			string(r.PriceTrend),
			FormatEventsList(r.Events),
			r.SentimentAll.String(),
			r.SentimentMedHigh.String(),
			r.SentimentHigh.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatEventsList renders labels as [['bullish', 'High'], ['bearish', 'Low']].
func FormatEventsList(events []models.EventLabel) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "['%s', '%s']", e.Sentiment, e.Impact)
	}
	b.WriteByte(']')
	return b.String()
}

// RenderSummary writes one block per scenario in the given order.
func RenderSummary(w io.Writer, results []models.ScenarioResult) error {
	bw := bufio.NewWriter(w)
	for i := range results {
		res := &results[i]
		fmt.Fprintln(bw, summaryRule)
		fmt.Fprintf(bw, "Scenario: %s\n", res.Params)

		all := res.Stat(models.LevelAll)
		if all.Total == 0 {
			fmt.Fprintln(bw, "(No overlapping data, 0 non-empty windows)")
		} else {
			fmt.Fprintf(bw, "(Based on %d non-empty windows)\n", all.Total)
			for _, lvl := range models.Levels {
				fmt.Fprintf(bw, "  - %s %s\n", levelPrefix(lvl), FormatRate(res.Stat(lvl)))
			}
		}
		fmt.Fprintf(bw, "%s\n\n", summaryRule)
	}
	return bw.Flush()
}

// FormatRate renders "Match Rate: 12.34% (m/t rows)" or "Match Rate: N/A (0 rows)".
func FormatRate(st models.MatchRateStat) string {
	rate, ok := st.Rate()
	if !ok {
		return "Match Rate: N/A (0 rows)"
	}
	return fmt.Sprintf("Match Rate: %.2f%% (%d/%d rows)", rate*100, st.Matches, st.Total)
}

func levelPrefix(l models.Level) string {
	switch l {
	case models.LevelAll:
		// padded so the rate column lines up with the longer labels
		return l.Label() + ":     "
	default:
		return l.Label() + ":"
	}
}

func writeFileAtomic(path string, fill func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
