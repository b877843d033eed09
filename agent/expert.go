package agent

import (
	"context"
	"fmt"

	"github.com/leonzzz435/garmin-ai-coach/tools"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

const plottingInstructions = `

## Selective Visualization
Create plots ONLY for insights that provide unique value beyond the raw
numbers. Limit: 2 plots. Reference each plot you create exactly once in your
analysis as [PLOT:plot_id]; repeated references break the final report.`

const hitlInstructions = `

## Asking the Athlete
The ask_user tool is available for genuinely blocking ambiguity. Use it
sparingly; every question pauses the whole analysis until the athlete
answers.`

// expertNode builds an interpretive analysis node with optional chart and
// human-input tools. Tool misuse comes back to the model as corrective text;
// provider failures retry; anything still failing degrades to an empty
// result plus an error entry.
func (b *Builder) expertNode(name string, role Role, personaKey, summaryKey, resultKey string, deps []string) *workflow.Node {
	return &workflow.Node{
		Name:      name,
		DependsOn: deps,
		Retry:     defaultLLMRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get(personaKey)
			if err != nil {
				return nil, err
			}

			plotting := state.GetBool(KeyPlottingEnabled)
			hitl := state.GetBool(KeyHITLEnabled)

			var bound []boundTool
			system := persona.System
			if plotting {
				plotTool := tools.NewPlottingTool(b.storage, b.executor, name, state.GetMap(KeyGarminData))
				bound = append(bound, boundTool{
					def: plotTool.Definition(),
					invoke: func(ctx context.Context, args string) (string, error) {
						return plotTool.Invoke(ctx, args), nil
					},
				})
				system += plottingInstructions
			}
			if hitl {
				humanTool := tools.NewHumanTool(name)
				bound = append(bound, boundTool{def: humanTool.Definition(), invoke: humanTool.Invoke})
				system += hitlInstructions
			}

			summary := state.GetString(summaryKey)
			if summary == "" {
				summary = "No summary available."
			}
			user := renderPrompt(persona.User, map[string]string{
				"data":             summary,
				"competitions":     mustJSON(state.GetList(KeyCompetitions)),
				"current_date":     mustJSON(state.GetMap(KeyCurrentDate)),
				"analysis_context": state.GetString(KeyAnalysisContext),
			})

			text, records, err := b.runToolLoop(ctx, name, role, system, user, bound, persona.MaxToolCalls)
			if err != nil {
				return nil, err
			}

			update := map[string]any{
				resultKey: text,
				KeyCosts:  costEntries(records),
			}
			if plotting {
				update[KeyPlots] = b.plotEntries(name)
			}
			b.logger.Info("expert analysis completed", "node", name, "llm_calls", len(records))
			return update, nil
		},
		Fallback: func(ctx context.Context, state *workflow.State, err error) map[string]any {
			return map[string]any{
				resultKey: "",
				KeyErrors: []any{fmt.Sprintf("%s failed: %v", name, err)},
			}
		},
	}
}

// plotEntries serializes the plots one agent stored, in the plain shape kept
// in state so checkpoints and the resolution node see the same data.
func (b *Builder) plotEntries(agent string) []any {
	var entries []any
	for _, plot := range b.storage.List() {
		if plot.Agent != agent {
			continue
		}
		entry, err := toJSONMap(plot)
		if err != nil {
			b.logger.Warn("failed to serialize plot", "plot_id", plot.ID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
