package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leonzzz435/garmin-ai-coach/llm"
)

// maxPlotsPerAgent caps chart generation per agent to bound cost.
const maxPlotsPerAgent = 2

// PlottingTool exposes chart creation to an agent's tool loop. Errors are
// returned as corrective text, never as Go errors, so the model can fix its
// script on the next iteration.
type PlottingTool struct {
	storage  *PlotStorage
	executor *ChartExecutor
	agent    string
	data     map[string]any
}

// NewPlottingTool creates the charting tool for one agent.
func NewPlottingTool(storage *PlotStorage, executor *ChartExecutor, agent string, data map[string]any) *PlottingTool {
	return &PlottingTool{storage: storage, executor: executor, agent: agent, data: data}
}

// Definition returns the tool schema advertised to the model.
func (t *PlottingTool) Definition() llm.Tool {
	return llm.Tool{
		Name: "create_plot",
		Description: fmt.Sprintf(`Create a chart from training data by submitting a Risor script.

LIMITS: maximum %d plots per agent. Create charts only for insights that add value beyond raw numbers.

The script must call plot(spec) with a map:
  plot({
      "id": "weekly_load",
      "title": "Weekly Training Load",
      "type": "line",            // "line" or "bar"
      "labels": ["W1", "W2"],
      "series": [{"name": "acute", "values": [420, 510]}],
  })

A read-only "data" map with the extracted training data is available to the script.

On success the tool returns a plot id; reference it in your analysis text as [PLOT:plot_id].
On error the tool returns guidance; correct the script and try again.`, maxPlotsPerAgent),
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"script": map[string]any{
					"type":        "string",
					"description": "Risor script that calls plot(spec)",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "What the chart shows",
				},
			},
			"required": []any{"script", "description"},
		},
	}
}

type plottingArgs struct {
	Script      string `json:"script"`
	Description string `json:"description"`
}

// Invoke executes one create_plot call and returns the tool result text.
func (t *PlottingTool) Invoke(ctx context.Context, arguments string) string {
	var args plottingArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("Error: tool arguments are not valid JSON: %v. Provide 'script' and 'description' fields.", err)
	}
	if args.Script == "" {
		return "Error: missing required parameter 'script'. Provide a Risor script that calls plot(spec)."
	}
	if args.Description == "" {
		return "Error: missing required parameter 'description'. Briefly describe what the chart shows."
	}

	used := t.storage.CountByAgent(t.agent)
	if used >= maxPlotsPerAgent {
		return fmt.Sprintf("Plot limit reached: you have already created %d of %d allowed plots. Reference existing plots with [PLOT:plot_id] or fold the insight into your text instead.",
			used, maxPlotsPerAgent)
	}

	specs, err := t.executor.Execute(ctx, args.Script, t.data)
	if err != nil {
		return fmt.Sprintf("Error executing chart script: %v", err)
	}
	if used+len(specs) > maxPlotsPerAgent {
		return fmt.Sprintf("Plot limit exceeded: this script declares %d plots but only %d of %d remain. Combine the insights into fewer charts.",
			len(specs), maxPlotsPerAgent-used, maxPlotsPerAgent)
	}

	var ids []string
	for _, spec := range specs {
		plot := Plot{
			ID:          spec.ID,
			Description: args.Description,
			Agent:       t.agent,
			HTML:        spec.Render(),
		}
		if err := t.storage.Store(plot); err != nil {
			return fmt.Sprintf("Error storing plot: %v. Choose a new unique id and try again.", err)
		}
		ids = append(ids, spec.ID)
	}

	if len(ids) == 1 {
		return fmt.Sprintf("Plot stored with id %q. Reference it in your analysis as [PLOT:%s].", ids[0], ids[0])
	}
	result := "Plots stored:"
	for _, id := range ids {
		result += fmt.Sprintf(" [PLOT:%s]", id)
	}
	return result
}
