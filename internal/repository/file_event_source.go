package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	applogger "SentiMatch/pkg/logger"
	"SentiMatch/pkg/util"
)

// ErrNoEvents means no folder yielded a usable event.
var ErrNoEvents = errors.New("no events loaded")

// eventFile is the subset of an analyzed event document we read.
type eventFile struct {
	OriginalTime json.RawMessage `json:"original_time"`
	Analysis     struct {
		Sentiment       string `json:"sentiment"`
		PredictedImpact string `json:"predicted_impact"`
	} `json:"analysis"`
}

// FileEventSource loads events from one JSON document per event, spread over
// sub folders of a base directory.
type FileEventSource struct {
	baseDir string
	dirs    []string
	l       *applogger.Logger
}

var _ domrepo.EventSource = (*FileEventSource)(nil)

func NewFileEventSource(baseDir string, dirs []string, l *applogger.Logger) *FileEventSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &FileEventSource{baseDir: baseDir, dirs: dirs, l: l}
}

// LoadEvents scans every configured folder. Missing folders and unreadable
// documents are logged and skipped; an empty result is an error.
func (s *FileEventSource) LoadEvents(ctx context.Context) ([]models.Event, error) {
	var (
		events  []models.Event
		skipped int
	)
	for _, dir := range s.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := filepath.Join(s.baseDir, dir)
		entries, err := os.ReadDir(full)
		if err != nil {
			s.l.Warn("event folder not readable, skipping",
				applogger.String("dir", full),
				applogger.Error(err),
			)
			continue
		}

		before := len(events)
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			ev, err := readEventFile(filepath.Join(full, entry.Name()))
			if err != nil {
				skipped++
				s.l.Warn("event file skipped",
					applogger.String("file", entry.Name()),
					applogger.String("dir", dir),
					applogger.Error(err),
				)
				continue
			}
			ev.Source = dir
			events = append(events, ev)
		}
		s.l.Info("event folder loaded",
			applogger.String("dir", dir),
			applogger.Int("events", len(events)-before),
		)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("%w from %s %v (%d files skipped)", ErrNoEvents, s.baseDir, s.dirs, skipped)
	}
	s.l.Info("events loaded", applogger.Int("events", len(events)), applogger.Int("skipped", skipped))
	return events, nil
}

func readEventFile(path string) (models.Event, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.Event{}, err
	}
	var f eventFile
	if err := json.Unmarshal(b, &f); err != nil {
		return models.Event{}, fmt.Errorf("decode: %w", err)
	}

	raw := string(bytes.Trim(bytes.TrimSpace(f.OriginalTime), `"`))
	if raw == "" || raw == "null" {
		return models.Event{}, errors.New("original_time missing")
	}
	ts, ok := util.ParseTime(raw)
	if !ok {
		return models.Event{}, fmt.Errorf("original_time %q not a timestamp", raw)
	}
	sent, err := models.ParseSentiment(f.Analysis.Sentiment)
	if err != nil {
		return models.Event{}, err
	}
	impact, err := models.ParseImpact(f.Analysis.PredictedImpact)
	if err != nil {
		return models.Event{}, err
	}
	return models.Event{Timestamp: ts, Sentiment: sent, Impact: impact}, nil
}
