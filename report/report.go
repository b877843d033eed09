// Package report persists the artifacts of a coaching run: the final HTML
// documents, intermediate markdown for each pipeline stage, and a
// machine-readable summary of cost, usage, and generated files.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/agent"
	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// Totals aggregates cost and token usage across every recorded provider call.
type Totals struct {
	Cost             float64 `json:"cost"`
	Currency         string  `json:"currency"`
	CostAccuracy     string  `json:"cost_accuracy"`
	Requests         int     `json:"requests"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
}

// Summary is the machine-readable run record written alongside the reports.
type Summary struct {
	ExecutionID string            `json:"execution_id"`
	GeneratedAt string            `json:"generated_at"`
	Totals      Totals            `json:"totals"`
	ByAgent     map[string]Totals `json:"costs_by_agent,omitempty"`
	PlotStats   map[string]any    `json:"plot_resolution,omitempty"`
	Files       []string          `json:"files"`
	Errors      []string          `json:"errors"`
}

// Writer persists run artifacts under a single output directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates the output directory if needed and returns a writer
// scoped to it.
func NewWriter(dir string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// artifacts maps state keys to the files they produce, in write order.
var artifacts = []struct {
	key  string
	file string
}{
	{agent.KeyMetricsResult, "metrics_analysis.md"},
	{agent.KeyPhysiologyResult, "physiology_analysis.md"},
	{agent.KeyActivityResult, "activity_analysis.md"},
	{agent.KeySynthesisResult, "synthesis.md"},
	{agent.KeySeasonPlan, "season_plan.md"},
	{agent.KeyPlanningConstraints, "planning_constraints.md"},
	{agent.KeyWeeklyPlan, "weekly_plan.md"},
	{agent.KeyAnalysisHTML, "analysis.html"},
	{agent.KeyPlanningHTML, "planning.html"},
}

// WriteAll persists every artifact present in the state. Stages that never
// produced output are skipped rather than treated as errors, so a cancelled
// or degraded run keeps everything it did produce. The summary is written
// last and lists exactly the files that landed on disk.
func (w *Writer) WriteAll(state *workflow.State, executionID string) (*Summary, error) {
	tracker := costTracker(state)
	summary := &Summary{
		ExecutionID: executionID,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Totals:      fromAggregate(tracker.Total()),
		ByAgent:     byAgent(tracker),
		PlotStats:   state.GetMap(agent.KeyPlotStats),
		Files:       []string{},
		Errors:      stateErrors(state),
	}

	var errs []error
	for _, a := range artifacts {
		content := state.GetString(a.key)
		if content == "" {
			continue
		}
		if err := w.writeFile(a.file, []byte(content)); err != nil {
			errs = append(errs, err)
			continue
		}
		summary.Files = append(summary.Files, a.file)
	}

	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to encode summary: %w", err))
	} else if err := w.writeFile("summary.json", raw); err != nil {
		errs = append(errs, err)
	}
	return summary, errors.Join(errs...)
}

func (w *Writer) writeFile(name string, data []byte) error {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.logger.Debug("artifact written", "file", name, "bytes", len(data))
	return nil
}

// CostTotals aggregates the cost entries accumulated in workflow state.
func CostTotals(state *workflow.State) Totals {
	return fromAggregate(costTracker(state).Total())
}

// costTracker rebuilds an llm.CostTracker from the state costs accumulator.
// Entries are the checkpoint-safe map form of llm.CostRecord, so they decode
// back through JSON.
func costTracker(state *workflow.State) *llm.CostTracker {
	tracker := llm.NewCostTracker()
	for _, entry := range state.GetList(agent.KeyCosts) {
		raw, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		var record llm.CostRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}
		tracker.Track(record)
	}
	return tracker
}

func byAgent(tracker *llm.CostTracker) map[string]Totals {
	aggregates := tracker.AggregateByAgent()
	if len(aggregates) == 0 {
		return nil
	}
	out := make(map[string]Totals, len(aggregates))
	for name, agg := range aggregates {
		out[name] = fromAggregate(agg)
	}
	return out
}

func fromAggregate(agg llm.CostAggregate) Totals {
	return Totals{
		Cost:             agg.TotalCost,
		Currency:         "USD",
		CostAccuracy:     string(agg.Accuracy),
		Requests:         agg.TotalRequests,
		PromptTokens:     agg.TotalPromptTokens,
		CompletionTokens: agg.TotalCompletionTokens,
		TotalTokens:      agg.TotalTokens,
	}
}

// stateErrors flattens the errors accumulator into plain strings.
func stateErrors(state *workflow.State) []string {
	entries := state.GetList(agent.KeyErrors)
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
