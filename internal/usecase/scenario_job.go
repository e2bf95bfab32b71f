package usecase

import (
	"context"
	"fmt"
	"time"

	"SentiMatch/internal/domain/models"
	drepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/services/matchrate"
	applogger "SentiMatch/pkg/logger"
	"SentiMatch/pkg/queue"
)

// ScenarioJob evaluates one grid point taken from the queue.
type ScenarioJob struct {
	inputs  *InputLoader
	sink    drepo.ReportSink
	metrics drepo.Metrics
	l       *applogger.Logger
}

var _ queue.Job = (*ScenarioJob)(nil)

func NewScenarioJob(inputs *InputLoader, sink drepo.ReportSink, metrics drepo.Metrics, l *applogger.Logger) *ScenarioJob {
	if l == nil {
		l = applogger.Nop()
	}
	return &ScenarioJob{inputs: inputs, sink: sink, metrics: metrics, l: l}
}

func (j *ScenarioJob) Name() string { return "scenario-evaluator" }
func (j *ScenarioJob) Type() string { return models.ScenarioJobType }

// Handle fails the attempt on sink errors so the queue retries it.
func (j *ScenarioJob) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[models.ScenarioJob](payload)
	if err != nil {
		return fmt.Errorf("scenario job payload: %w", err)
	}
	params := job.Params()
	if params.InputMinutes <= 0 || params.OutputMinutes <= 0 || job.ThresholdPct < 0 {
		return fmt.Errorf("scenario job %s: invalid parameters", params.Key())
	}

	in, err := j.inputs.Load(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	res := matchrate.EvaluateScenario(in, params, job.ThresholdPct)
	res.RunID = job.RunID
	res.Duration = time.Since(start)
	res.EvaluatedAt = time.Now().UTC()
	recordScenario(j.metrics, &res)

	if err := j.sink.WriteScenario(ctx, &res); err != nil {
		return fmt.Errorf("write scenario %s: %w", params.Key(), err)
	}
	j.l.Info("scenario job done",
		applogger.String("run_id", job.RunID),
		applogger.String("scenario", params.Key()),
		applogger.Int("rows", len(res.Windows)),
	)
	return nil
}
