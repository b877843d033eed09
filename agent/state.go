// Package agent implements the coaching pipeline: summarizer, expert,
// synthesis, planning, and formatting nodes wired into a workflow graph, with
// persona configuration and per-mode model selection.
package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/garmin"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// State keys. Each node owns its output key; accumulator keys merge under the
// reducers returned by Reducers.
const (
	KeyAthleteName     = "athlete_name"
	KeyGarminData      = "garmin_data"
	KeyAnalysisContext = "analysis_context"
	KeyPlanningContext = "planning_context"
	KeyCompetitions    = "competitions"
	KeyCurrentDate     = "current_date"
	KeyWeekDates       = "week_dates"
	KeyPlottingEnabled = "plotting_enabled"
	KeyHITLEnabled     = "hitl_enabled"
	KeyExecutionID     = "execution_id"

	KeyMetricsSummary    = "metrics_summary"
	KeyPhysiologySummary = "physiology_summary"
	KeyActivitySummary   = "activity_summary"
	KeyMetricsResult     = "metrics_result"
	KeyPhysiologyResult  = "physiology_result"
	KeyActivityResult    = "activity_result"
	KeySynthesisResult   = "synthesis_result"

	KeySeasonPlan          = "season_plan"
	KeyPlanningConstraints = "planning_constraints"
	KeyWeeklyPlan          = "weekly_plan"

	KeyAnalysisHTML = "analysis_html"
	KeyPlanningHTML = "planning_html"
	KeyPlotStats    = "plot_resolution_stats"

	KeyPlots  = "plots"
	KeyCosts  = "costs"
	KeyErrors = "errors"
)

// Reducers returns the merge rules for accumulator keys. Plots, costs, and
// errors are written by concurrent nodes, so they concatenate instead of
// overwriting.
func Reducers() map[string]workflow.Reducer {
	return map[string]workflow.Reducer{
		KeyPlots:  workflow.AppendReducer,
		KeyCosts:  workflow.AppendReducer,
		KeyErrors: workflow.AppendReducer,
	}
}

// RunInputs carries everything needed to seed the workflow state for one run.
type RunInputs struct {
	AthleteName     string
	Data            *garmin.Data
	AnalysisContext string
	PlanningContext string
	Competitions    []map[string]any
	Now             time.Time
	PlottingEnabled bool
	HITLEnabled     bool
	ExecutionID     string
}

// BuildInitialState assembles the workflow's initial state map. The Garmin
// record goes through a JSON round trip so nodes and checkpoints see the same
// plain-map shape.
func BuildInitialState(in RunInputs) (map[string]any, error) {
	garminData, err := toJSONMap(in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training data: %w", err)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	competitions := in.Competitions
	if competitions == nil {
		competitions = []map[string]any{}
	}

	return map[string]any{
		KeyAthleteName:     in.AthleteName,
		KeyGarminData:      garminData,
		KeyAnalysisContext: in.AnalysisContext,
		KeyPlanningContext: in.PlanningContext,
		KeyCompetitions:    competitions,
		KeyCurrentDate:     dateRecord(now),
		KeyWeekDates:       weekDates(now, 14),
		KeyPlottingEnabled: in.PlottingEnabled,
		KeyHITLEnabled:     in.HITLEnabled,
		KeyExecutionID:     in.ExecutionID,
		KeyPlots:           []any{},
		KeyCosts:           []any{},
		KeyErrors:          []any{},
	}, nil
}

func dateRecord(t time.Time) map[string]any {
	return map[string]any{
		"date":    t.Format(time.DateOnly),
		"weekday": t.Weekday().String(),
	}
}

// weekDates lists the next n days starting today, for day-level planning.
func weekDates(start time.Time, n int) []any {
	days := make([]any, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, dateRecord(start.AddDate(0, 0, i)))
	}
	return days
}

// toJSONMap converts a struct to the map shape it would have after a
// checkpoint round trip.
func toJSONMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mustJSON renders a state value as indented JSON for prompt embedding.
func mustJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
