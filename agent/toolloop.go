package agent

import (
	"context"
	"fmt"

	"github.com/leonzzz435/garmin-ai-coach/llm"
)

// boundTool pairs a tool definition with its invocation. A tool returns its
// result as text for the model; a non-nil error aborts the loop and
// propagates (the human-input tool uses this to suspend the workflow).
type boundTool struct {
	def    llm.Tool
	invoke func(ctx context.Context, arguments string) (string, error)
}

// runToolLoop drives one agent conversation: send messages, execute any tool
// calls, feed results back, repeat until the model answers with final text.
// Exceeding maxIterations is a reported error, not a silent truncation.
func (b *Builder) runToolLoop(ctx context.Context, node string, role Role, system, user string, bound []boundTool, maxIterations int) (string, []*llm.CostRecord, error) {
	defs := make([]llm.Tool, 0, len(bound))
	byName := make(map[string]boundTool, len(bound))
	for _, t := range bound {
		defs = append(defs, t.def)
		byName[t.def.Name] = t
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: user}}
	var records []*llm.CostRecord

	for iteration := 1; iteration <= maxIterations; iteration++ {
		resp, record, err := b.complete(ctx, node, role, llm.CompletionRequest{
			System:   system,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return "", records, err
		}
		records = append(records, record)

		if !resp.HasToolCalls() {
			return resp.Content, records, nil
		}

		b.logger.Debug("tool calls requested",
			"node", node, "iteration", iteration, "calls", len(resp.ToolCalls))
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			tool, ok := byName[call.Name]
			if !ok {
				messages = append(messages, llm.Message{
					Role:       llm.RoleTool,
					ToolCallID: call.ID,
					Content:    fmt.Sprintf("Tool %q is not available. Available tools: %s", call.Name, toolNames(defs)),
					IsError:    true,
				})
				continue
			}
			result, err := tool.invoke(ctx, call.Arguments)
			if err != nil {
				return "", records, err
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return "", records, fmt.Errorf("tool loop for %s exceeded %d iterations without a final answer", node, maxIterations)
}

func toolNames(defs []llm.Tool) string {
	names := ""
	for i, def := range defs {
		if i > 0 {
			names += ", "
		}
		names += def.Name
	}
	return names
}
