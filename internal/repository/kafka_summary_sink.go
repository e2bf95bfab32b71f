package repository

import (
	"context"
	"fmt"
	"time"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
)

// Event types carried in the envelope of summary messages.
const (
	EventScenarioSummary = "scenario.summary"
	EventSweepCompleted  = "sweep.completed"
)

// messagePublisher is satisfied by *kafka.Producer.
type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// SummaryEnvelope is the Kafka message body.
type SummaryEnvelope struct {
	Type      string                   `json:"type"`
	RunID     string                   `json:"run_id"`
	Summary   *models.ScenarioSummary  `json:"summary,omitempty"`
	Scenarios []models.ScenarioSummary `json:"scenarios,omitempty"`
	SentAt    time.Time                `json:"sent_at"`
}

// KafkaSummarySink publishes one row-less summary per scenario, keyed by scenario.
type KafkaSummarySink struct {
	pub   messagePublisher
	topic string
}

var _ domrepo.ReportSink = (*KafkaSummarySink)(nil)

func NewKafkaSummarySink(pub messagePublisher, topic string) *KafkaSummarySink {
	return &KafkaSummarySink{pub: pub, topic: topic}
}

func (s *KafkaSummarySink) WriteScenario(ctx context.Context, res *models.ScenarioResult) error {
	sum := res.Summary()
	err := s.pub.Publish(ctx, s.topic, []byte(res.Params.Key()), SummaryEnvelope{
		Type:    EventScenarioSummary,
		RunID:   res.RunID,
		Summary: &sum,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish summary %s: %w", res.Params.Key(), err)
	}
	return nil
}

// Finish announces the run with all summaries in grid order.
func (s *KafkaSummarySink) Finish(ctx context.Context, run *models.SweepResult) error {
	sums := make([]models.ScenarioSummary, len(run.Scenarios))
	for i := range run.Scenarios {
		sums[i] = run.Scenarios[i].Summary()
	}
	err := s.pub.Publish(ctx, s.topic, []byte(run.RunID), SummaryEnvelope{
		Type:      EventSweepCompleted,
		RunID:     run.RunID,
		Scenarios: sums,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish sweep completion: %w", err)
	}
	return nil
}
