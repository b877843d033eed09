package agent

import (
	"context"
	"fmt"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/tools"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// seasonPlannerNode produces the 12-24 week periodization frame. It can ask
// the athlete clarifying questions when the competition schedule is
// ambiguous.
func (b *Builder) seasonPlannerNode() *workflow.Node {
	return &workflow.Node{
		Name:      "season_planner",
		DependsOn: []string{"metrics_expert", "physiology_expert", "activity_expert"},
		Retry:     defaultLLMRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get("season_planner")
			if err != nil {
				return nil, err
			}
			system := persona.System
			user := renderPrompt(persona.User, map[string]string{
				"athlete_name": state.GetString(KeyAthleteName),
				"current_date": mustJSON(state.GetMap(KeyCurrentDate)),
				"competitions": mustJSON(state.GetList(KeyCompetitions)),
			})

			var (
				text    string
				records []*llm.CostRecord
			)
			if state.GetBool(KeyHITLEnabled) {
				humanTool := tools.NewHumanTool("season_planner")
				bound := []boundTool{{def: humanTool.Definition(), invoke: humanTool.Invoke}}
				text, records, err = b.runToolLoop(ctx, "season_planner", RoleSeasonPlanner,
					system+hitlInstructions, user, bound, persona.MaxToolCalls)
			} else {
				var resp *llm.CompletionResponse
				var record *llm.CostRecord
				resp, record, err = b.complete(ctx, "season_planner", RoleSeasonPlanner, llm.CompletionRequest{
					System:   system,
					Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
				})
				if err == nil {
					text = resp.Content
					records = []*llm.CostRecord{record}
				}
			}
			if err != nil {
				return nil, err
			}

			return map[string]any{
				KeySeasonPlan: text,
				KeyCosts:      costEntries(records),
			}, nil
		},
	}
}

// dataIntegrationNode extracts three-tier planning constraints from the
// expert analyses. Planning can proceed without it, so failures degrade.
func (b *Builder) dataIntegrationNode() *workflow.Node {
	return &workflow.Node{
		Name:      "data_integration",
		DependsOn: []string{"season_planner"},
		Retry:     defaultLLMRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get("data_integration")
			if err != nil {
				return nil, err
			}
			user := renderPrompt(persona.User, map[string]string{
				"metrics_result":    state.GetString(KeyMetricsResult),
				"activity_result":   state.GetString(KeyActivityResult),
				"physiology_result": state.GetString(KeyPhysiologyResult),
				"season_plan":       state.GetString(KeySeasonPlan),
			})

			resp, record, err := b.complete(ctx, "data_integration", RoleDataIntegration, llm.CompletionRequest{
				System:   persona.System,
				Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
			})
			if err != nil {
				return nil, err
			}

			return map[string]any{
				KeyPlanningConstraints: resp.Content,
				KeyCosts:               costEntries([]*llm.CostRecord{record}),
			}, nil
		},
		Fallback: func(ctx context.Context, state *workflow.State, err error) map[string]any {
			return map[string]any{
				KeyPlanningConstraints: "",
				KeyErrors:              []any{fmt.Sprintf("data_integration failed: %v", err)},
			}
		},
	}
}

// weeklyPlannerNode turns the season frame and constraints into a concrete
// 14-day plan.
func (b *Builder) weeklyPlannerNode() *workflow.Node {
	return &workflow.Node{
		Name:      "weekly_planner",
		DependsOn: []string{"data_integration"},
		Retry:     defaultLLMRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get("weekly_planner")
			if err != nil {
				return nil, err
			}
			user := renderPrompt(persona.User, map[string]string{
				"athlete_name":         state.GetString(KeyAthleteName),
				"season_plan":          state.GetString(KeySeasonPlan),
				"planning_constraints": state.GetString(KeyPlanningConstraints),
				"current_date":         mustJSON(state.GetMap(KeyCurrentDate)),
				"week_dates":           mustJSON(state.GetList(KeyWeekDates)),
				"competitions":         mustJSON(state.GetList(KeyCompetitions)),
				"planning_context":     state.GetString(KeyPlanningContext),
				"metrics_result":       state.GetString(KeyMetricsResult),
				"activity_result":      state.GetString(KeyActivityResult),
				"physiology_result":    state.GetString(KeyPhysiologyResult),
			})

			resp, record, err := b.complete(ctx, "weekly_planner", RoleWeeklyPlanner, llm.CompletionRequest{
				System:   persona.System,
				Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
			})
			if err != nil {
				return nil, err
			}

			return map[string]any{
				KeyWeeklyPlan: resp.Content,
				KeyCosts:      costEntries([]*llm.CostRecord{record}),
			}, nil
		},
	}
}
