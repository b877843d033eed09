package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/tools"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// Builder constructs the coaching workflow for one execution. It owns the
// per-execution plot storage and hands each node its persona, model, and
// tools.
type Builder struct {
	selector    *ModelSelector
	personas    *PersonaSet
	storage     *tools.PlotStorage
	executor    *tools.ChartExecutor
	logger      *slog.Logger
	executionID string
}

// BuilderOptions configures a workflow builder.
type BuilderOptions struct {
	Selector    *ModelSelector
	Personas    *PersonaSet
	Logger      *slog.Logger
	ExecutionID string
}

// NewBuilder creates a builder scoped to one execution.
func NewBuilder(opts BuilderOptions) (*Builder, error) {
	if opts.Selector == nil {
		return nil, fmt.Errorf("model selector is required")
	}
	if opts.Personas == nil {
		personas, err := DefaultPersonas()
		if err != nil {
			return nil, err
		}
		opts.Personas = personas
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ExecutionID == "" {
		opts.ExecutionID = workflow.NewExecutionID()
	}
	return &Builder{
		selector:    opts.Selector,
		personas:    opts.Personas,
		storage:     tools.NewPlotStorage(opts.ExecutionID),
		executor:    tools.NewChartExecutor(),
		logger:      opts.Logger,
		executionID: opts.ExecutionID,
	}, nil
}

// ExecutionID returns the execution this builder is scoped to.
func (b *Builder) ExecutionID() string {
	return b.executionID
}

// Build wires the full analysis + planning graph.
func (b *Builder) Build() (*workflow.Workflow, error) {
	return workflow.New(workflow.Options{
		Name:        "training-analysis",
		Description: "Garmin data analysis and training plan generation",
		Reducers:    Reducers(),
		Nodes: []*workflow.Node{
			b.summarizerNode("metrics_summarizer", extractMetricsData, KeyMetricsSummary, "summarizer"),
			b.summarizerNode("physiology_summarizer", extractPhysiologyData, KeyPhysiologySummary, "summarizer"),
			b.summarizerNode("activity_summarizer", extractActivityData, KeyActivitySummary, "activity_summarizer"),

			b.expertNode("metrics_expert", RoleMetricsExpert, "metrics_expert",
				KeyMetricsSummary, KeyMetricsResult, []string{"metrics_summarizer"}),
			b.expertNode("physiology_expert", RolePhysiologyExpert, "physiology_expert",
				KeyPhysiologySummary, KeyPhysiologyResult, []string{"physiology_summarizer"}),
			b.expertNode("activity_expert", RoleActivityExpert, "activity_expert",
				KeyActivitySummary, KeyActivityResult, []string{"activity_summarizer"}),

			b.synthesisNode(),
			b.formatterNode("formatter", "formatter", RoleFormatter,
				KeySynthesisResult, KeyAnalysisHTML, []string{"synthesis"}),
			b.plotResolutionNode(),

			b.seasonPlannerNode(),
			b.dataIntegrationNode(),
			b.weeklyPlannerNode(),
			b.formatterNode("plan_formatter", "plan_formatter", RoleFormatter,
				KeyWeeklyPlan, KeyPlanningHTML, []string{"weekly_planner"}),

			b.finalizeNode(),
		},
	})
}

// defaultLLMRetry retries transient provider failures at the node level.
var defaultLLMRetry = &workflow.RetryPolicy{MaxRetries: 3, BaseDelay: 2 * time.Second}

// complete performs one provider call for a node and records its cost.
func (b *Builder) complete(ctx context.Context, node string, role Role, req llm.CompletionRequest) (*llm.CompletionResponse, *llm.CostRecord, error) {
	provider, model, err := b.selector.Resolve(role)
	if err != nil {
		return nil, nil, err
	}
	req.Model = model

	start := time.Now()
	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	record := &llm.CostRecord{
		RequestID:   resp.RequestID,
		ExecutionID: b.executionID,
		Agent:       node,
		Provider:    provider.Name(),
		Model:       resp.Model,
		Timestamp:   start,
		Duration:    time.Since(start),
		Usage:       resp.Usage,
		Cost:        llm.CalculateCost(resp.Model, resp.Usage),
	}
	return resp, record, nil
}

// costEntries converts cost records to the plain shape stored in state.
func costEntries(records []*llm.CostRecord) []any {
	entries := make([]any, 0, len(records))
	for _, record := range records {
		entry, err := toJSONMap(record)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
