package agent

import (
	"context"
	"regexp"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

var plotRefPattern = regexp.MustCompile(`\[PLOT:([^\]]+)\]`)

// synthesisNode merges the three expert analyses into the report body. No
// tools; a failure here aborts the run since there is nothing to format
// without it.
func (b *Builder) synthesisNode() *workflow.Node {
	return &workflow.Node{
		Name:      "synthesis",
		DependsOn: []string{"metrics_expert", "physiology_expert", "activity_expert"},
		Retry:     defaultLLMRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get("synthesis")
			if err != nil {
				return nil, err
			}
			user := renderPrompt(persona.User, map[string]string{
				"athlete_name":      state.GetString(KeyAthleteName),
				"metrics_result":    state.GetString(KeyMetricsResult),
				"activity_result":   state.GetString(KeyActivityResult),
				"physiology_result": state.GetString(KeyPhysiologyResult),
				"competitions":      mustJSON(state.GetList(KeyCompetitions)),
				"current_date":      mustJSON(state.GetMap(KeyCurrentDate)),
			})

			resp, record, err := b.complete(ctx, "synthesis", RoleSynthesis, llm.CompletionRequest{
				System:   persona.System,
				Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
			})
			if err != nil {
				return nil, err
			}

			return map[string]any{
				KeySynthesisResult: dedupePlotRefs(resp.Content),
				KeyCosts:           costEntries([]*llm.CostRecord{record}),
			}, nil
		},
	}
}

// dedupePlotRefs keeps the first occurrence of each [PLOT:id] reference and
// drops later repeats. The prompt asks the model to do this itself, but a
// duplicate that slips through would render the same chart twice.
func dedupePlotRefs(text string) string {
	seen := map[string]bool{}
	return plotRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		id := plotRefPattern.FindStringSubmatch(match)[1]
		if seen[id] {
			return ""
		}
		seen[id] = true
		return match
	})
}
