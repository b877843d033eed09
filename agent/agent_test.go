package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonzzz435/garmin-ai-coach/garmin"
	"github.com/leonzzz435/garmin-ai-coach/llm"
)

type fakeProvider struct {
	name     string
	complete func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return f.complete(ctx, req)
}

func textResponse(content string) *llm.CompletionResponse {
	return &llm.CompletionResponse{
		Content:   content,
		Model:     "claude-3-5-haiku",
		RequestID: "req-test",
		Usage:     llm.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
}

func newTestSelector(t *testing.T, provider llm.Provider) *ModelSelector {
	t.Helper()
	registry := llm.NewRegistry()
	registry.Register(provider)
	selector, err := NewModelSelector(ModeDevelopment, registry, nil)
	require.NoError(t, err)
	return selector
}

func TestModelSelectorValidate(t *testing.T) {
	selector := newTestSelector(t, &fakeProvider{name: "anthropic"})
	require.NoError(t, selector.Validate())
}

func TestModelSelectorFailsFastWithoutProvider(t *testing.T) {
	selector, err := NewModelSelector(ModeStandard, llm.NewRegistry(), nil)
	require.NoError(t, err)

	err = selector.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolvable model assignments")

	_, _, err = selector.Resolve(RoleMetricsExpert)
	require.Error(t, err)
}

func TestModelSelectorRejectsUnknownMode(t *testing.T) {
	_, err := NewModelSelector(Mode("turbo"), llm.NewRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestModelSelectorOverrides(t *testing.T) {
	registry := llm.NewRegistry()
	registry.Register(&fakeProvider{name: "openrouter"})
	selector, err := NewModelSelector(ModeDevelopment, registry, map[Role]Assignment{
		RoleFormatter: {"openrouter", "deepseek/deepseek-chat"},
	})
	require.NoError(t, err)

	provider, model, err := selector.Resolve(RoleFormatter)
	require.NoError(t, err)
	assert.Equal(t, "openrouter", provider.Name())
	assert.Equal(t, "deepseek/deepseek-chat", model)
}

func TestDefaultPersonasComplete(t *testing.T) {
	personas, err := DefaultPersonas()
	require.NoError(t, err)

	for _, key := range requiredPersonas {
		persona, err := personas.Get(key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, persona.System, key)
		assert.NotEmpty(t, persona.User, key)
		assert.Positive(t, persona.MaxToolCalls, key)
	}

	_, err = personas.Get("nonexistent")
	require.Error(t, err)
}

func TestLoadPersonasMissingFile(t *testing.T) {
	_, err := LoadPersonas("/nonexistent/personas.yaml")
	require.Error(t, err)
}

func TestRenderPromptLeavesUnknownPlaceholders(t *testing.T) {
	out := renderPrompt("Hello {name}, today is {date}.", map[string]string{"name": "Ada"})
	assert.Equal(t, "Hello Ada, today is {date}.", out)
}

func TestBuildInitialState(t *testing.T) {
	now := time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)
	state, err := BuildInitialState(RunInputs{
		AthleteName: "Ada",
		Data:        &garmin.Data{},
		Now:         now,
		HITLEnabled: true,
		ExecutionID: "exec_test",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", state[KeyAthleteName])
	assert.Equal(t, "exec_test", state[KeyExecutionID])
	assert.Equal(t, true, state[KeyHITLEnabled])
	assert.Equal(t, false, state[KeyPlottingEnabled])

	current := state[KeyCurrentDate].(map[string]any)
	assert.Equal(t, "2026-08-22", current["date"])
	assert.Equal(t, "Saturday", current["weekday"])

	week := state[KeyWeekDates].([]any)
	require.Len(t, week, 14)
	last := week[13].(map[string]any)
	assert.Equal(t, "2026-09-04", last["date"])

	// Garmin data is plain maps, the same shape a checkpoint reload yields.
	data, ok := state[KeyGarminData].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "training_status")

	assert.Equal(t, []map[string]any{}, state[KeyCompetitions])
}

func TestDedupePlotRefs(t *testing.T) {
	text := "See [PLOT:a] then [PLOT:b] and again [PLOT:a]."
	out := dedupePlotRefs(text)
	assert.Equal(t, "See [PLOT:a] then [PLOT:b] and again .", out)
}

func TestStripCodeFences(t *testing.T) {
	fenced := "```html\n<!DOCTYPE html><html></html>\n```"
	assert.Equal(t, "<!DOCTYPE html><html></html>", stripCodeFences(fenced))
	assert.Equal(t, "<html></html>", stripCodeFences("<html></html>"))
}

func TestValidateHTMLDocument(t *testing.T) {
	require.NoError(t, validateHTMLDocument("<!DOCTYPE html><html></html>"))
	require.NoError(t, validateHTMLDocument("<html lang=\"en\"></html>"))

	err := validateHTMLDocument("# Still markdown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a complete HTML document")
}
