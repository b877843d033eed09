package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
	"github.com/leonzzz435/garmin-ai-coach/workflow/retry"
)

// Formatting failures are usually the model ignoring the "HTML only"
// instruction, so the formatter gets a much higher retry budget than other
// nodes.
var formatterRetry = &workflow.RetryPolicy{MaxRetries: 10, BaseDelay: time.Second}

// formatterNode converts a markdown artifact into a self-contained HTML
// document. Output that is not a complete HTML document after code-fence
// stripping is treated as a recoverable failure and retried.
func (b *Builder) formatterNode(name, personaKey string, role Role, inputKey, outputKey string, deps []string) *workflow.Node {
	return &workflow.Node{
		Name:      name,
		DependsOn: deps,
		Retry:     formatterRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get(personaKey)
			if err != nil {
				return nil, err
			}
			content := state.GetString(inputKey)
			if content == "" {
				// Missing input cannot heal across attempts.
				return nil, workflow.NewFatalError(
					fmt.Errorf("%s has no content to format (missing %s)", name, inputKey))
			}
			user := renderPrompt(persona.User, map[string]string{"content": content})

			resp, record, err := b.complete(ctx, name, role, llm.CompletionRequest{
				System:   persona.System,
				Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
			})
			if err != nil {
				return nil, err
			}

			html := stripCodeFences(resp.Content)
			if err := validateHTMLDocument(html); err != nil {
				b.logger.Warn("formatter produced invalid document, retrying", "node", name, "error", err)
				return nil, retry.NewRecoverableError(err)
			}

			return map[string]any{
				outputKey: html,
				KeyCosts:  costEntries([]*llm.CostRecord{record}),
			}, nil
		},
	}
}

// stripCodeFences removes a wrapping markdown code fence if the model added
// one despite instructions.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func validateHTMLDocument(html string) error {
	lower := strings.ToLower(strings.TrimSpace(html))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return nil
	}
	preview := lower
	if len(preview) > 60 {
		preview = preview[:60]
	}
	return fmt.Errorf("output is not a complete HTML document (starts with %q)", preview)
}
