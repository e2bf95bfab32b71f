package models

// Requests for report HTTP endpoints.

type ScenarioListRequest struct {
	RunID string `query:"run_id" json:"run_id"`
}

type ScenarioDetailRequest struct {
	RunID         string `query:"run_id" json:"run_id"`
	InputMinutes  int    `param:"input" json:"input_minutes" validate:"gte=1,lte=10080"`
	OutputMinutes int    `param:"output" json:"output_minutes" validate:"gte=1,lte=10080"`
	Limit         int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=100000"`
	Offset        int    `query:"offset" json:"offset" validate:"gte=0"`
}

type EvaluateRequest struct {
	InputMinutes  int      `json:"input_minutes" validate:"required,gte=1,lte=10080"`
	OutputMinutes int      `json:"output_minutes" validate:"required,gte=1,lte=10080"`
	ThresholdPct  *float64 `json:"threshold_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	IncludeRows   bool     `json:"include_rows"`
}

// ScenarioDetail is one scenario with a page of its rows.
type ScenarioDetail struct {
	ScenarioSummary
	Windows []WindowResult `json:"windows"`
}
