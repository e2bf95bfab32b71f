package repository

import (
	"context"
	"fmt"

	"SentiMatch/internal/domain/models"
	domrepo "SentiMatch/internal/domain/repository"
	"SentiMatch/pkg/queue"
)

// QueueScenarioPublisher turns a grid into scenario jobs on the queue.
type QueueScenarioPublisher struct {
	q queue.Publisher
}

var _ domrepo.ScenarioPublisher = (*QueueScenarioPublisher)(nil)

func NewQueueScenarioPublisher(q queue.Publisher) *QueueScenarioPublisher {
	return &QueueScenarioPublisher{q: q}
}

func (p *QueueScenarioPublisher) PublishScenarios(ctx context.Context, runID string, thresholdPct float64, grid []models.ScenarioParams) error {
	payloads := make([]interface{}, len(grid))
	for i, g := range grid {
		payloads[i] = models.ScenarioJob{
			RunID:         runID,
			InputMinutes:  g.InputMinutes,
			OutputMinutes: g.OutputMinutes,
			ThresholdPct:  thresholdPct,
		}
	}
	if err := p.q.Publish(ctx, models.ScenarioJobType, payloads...); err != nil {
		return fmt.Errorf("enqueue %d scenarios: %w", len(grid), err)
	}
	return nil
}
