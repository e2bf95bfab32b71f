package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	"SentiMatch/pkg/util"
)

// BarTimeLayout is how open_time is written to CSV.
const BarTimeLayout = "2006-01-02 15:04:05"

var priceColumns = []string{"open_time", "open", "high", "low", "close", "volume"}

// CSVPriceSource reads klines from a CSV with an open_time,open,high,low,close,volume header.
type CSVPriceSource struct {
	path string
}

var _ domrepo.PriceSource = (*CSVPriceSource)(nil)

func NewCSVPriceSource(path string) *CSVPriceSource {
	return &CSVPriceSource{path: path}
}

// LoadBars parses the whole file. A missing file or malformed row is an error.
func (s *CSVPriceSource) LoadBars(ctx context.Context) ([]models.PriceBar, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()

	bars, err := readBars(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return bars, nil
}

func readBars(ctx context.Context, r io.Reader) ([]models.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"open_time", "open", "close"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var bars []models.PriceBar
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := parseBar(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(rec []string, idx map[string]int) (models.PriceBar, error) {
	var bar models.PriceBar
	ts, ok := util.ParseBarTime(rec[idx["open_time"]])
	if !ok {
		return bar, fmt.Errorf("bad open_time %q", rec[idx["open_time"]])
	}
	bar.OpenTime = ts

	fields := map[string]*float64{
		"open":   &bar.Open,
		"high":   &bar.High,
		"low":    &bar.Low,
		"close":  &bar.Close,
		"volume": &bar.Volume,
	}
	for col, dst := range fields {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return bar, fmt.Errorf("bad %s %q", col, rec[i])
		}
		*dst = v
	}
	return bar, nil
}

// CSVPriceWriter writes fetched klines as {name}_{symbol}_{interval}.csv.
type CSVPriceWriter struct {
	dir  string
	name string
}

var _ domrepo.PriceWriter = (*CSVPriceWriter)(nil)

func NewCSVPriceWriter(dir, name string) *CSVPriceWriter {
	return &CSVPriceWriter{dir: dir, name: name}
}

// Path is where WriteBars puts the file for symbol and interval.
func (w *CSVPriceWriter) Path(symbol string, interval domrepo.Interval) string {
	file := fmt.Sprintf("%s_%s.csv", symbol, interval)
	if w.name != "" {
		file = w.name + "_" + file
	}
	return filepath.Join(w.dir, file)
}

func (w *CSVPriceWriter) WriteBars(_ context.Context, symbol string, interval domrepo.Interval, bars []models.PriceBar) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create price dir: %w", err)
	}
	path := w.Path(symbol, interval)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create price csv: %w", err)
	}

	if err := writeBars(f, bars); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close price csv: %w", err)
	}
	return os.Rename(tmp, path)
}

func writeBars(out io.Writer, bars []models.PriceBar) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(priceColumns); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, b := range bars {
		rec := []string{
			b.OpenTime.UTC().Format(BarTimeLayout),
			ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close), ff(b.Volume),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
