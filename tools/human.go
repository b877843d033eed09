package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// HumanTool lets an agent ask the athlete a clarifying question. The first
// call suspends the workflow; after resume the recorded answer is returned as
// the tool result. There is no cap on questions.
type HumanTool struct {
	agent string
}

// NewHumanTool creates the ask_user tool for one agent.
func NewHumanTool(agent string) *HumanTool {
	return &HumanTool{agent: agent}
}

// Definition returns the tool schema advertised to the model.
func (t *HumanTool) Definition() llm.Tool {
	return llm.Tool{
		Name: "ask_user",
		Description: `Ask the athlete a clarifying question when their data or goals are ambiguous.

Use this for genuinely blocking ambiguity only (conflicting race priorities, unexplained training gaps, unclear constraints). The athlete's literal answer is returned as the tool result.`,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The question to ask the athlete",
				},
				"context": map[string]any{
					"type":        "string",
					"description": "Why you are asking, shown alongside the question",
				},
			},
			"required": []any{"question"},
		},
	}
}

type humanArgs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// Invoke raises the question through the workflow interrupt mechanism. The
// returned error must be propagated unchanged so the engine can suspend the
// node; on replay the athlete's answer comes back instead.
func (t *HumanTool) Invoke(ctx context.Context, arguments string) (string, error) {
	var args humanArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("Error: tool arguments are not valid JSON: %v. Provide a 'question' field.", err), nil
	}
	if args.Question == "" {
		return "Error: missing required parameter 'question'.", nil
	}
	return workflow.Interrupt(ctx, workflow.PendingInterrupt{
		Agent:    t.agent,
		Question: args.Question,
		Context:  args.Context,
	})
}
