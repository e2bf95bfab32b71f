package repository

import (
	"context"
	"errors"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
)

// MultiSink fans out to every sink; one failing sink does not starve the others.
type MultiSink struct {
	sinks []domrepo.ReportSink
}

var _ domrepo.ReportSink = (*MultiSink)(nil)

func NewMultiSink(sinks ...domrepo.ReportSink) *MultiSink {
	out := make([]domrepo.ReportSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

// Len is the number of attached sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) WriteScenario(ctx context.Context, res *models.ScenarioResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteScenario(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Finish(ctx context.Context, run *models.SweepResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Finish(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
