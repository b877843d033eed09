package agent

import (
	"fmt"
	"sort"

	"github.com/leonzzz435/garmin-ai-coach/llm"
)

// Mode selects the model tier for a run.
type Mode string

const (
	ModeDevelopment   Mode = "development"
	ModeStandard      Mode = "standard"
	ModeCostEffective Mode = "cost_effective"
)

// Role identifies the logical function an agent performs, independent of
// which model backs it.
type Role string

const (
	RoleSummarizer       Role = "summarizer"
	RoleMetricsExpert    Role = "metrics"
	RolePhysiologyExpert Role = "physiology"
	RoleActivityExpert   Role = "activity"
	RoleSynthesis        Role = "synthesis"
	RoleSeasonPlanner    Role = "season"
	RoleDataIntegration  Role = "integration"
	RoleWeeklyPlanner    Role = "weekly"
	RoleFormatter        Role = "formatter"
)

// AllRoles lists every role the pipeline uses.
func AllRoles() []Role {
	return []Role{
		RoleSummarizer, RoleMetricsExpert, RolePhysiologyExpert,
		RoleActivityExpert, RoleSynthesis, RoleSeasonPlanner,
		RoleDataIntegration, RoleWeeklyPlanner, RoleFormatter,
	}
}

// Assignment names the provider and model backing one role.
type Assignment struct {
	Provider string
	Model    string
}

var modelAssignments = map[Mode]map[Role]Assignment{
	ModeDevelopment: {
		RoleSummarizer:       {"anthropic", "claude-3-5-haiku"},
		RoleMetricsExpert:    {"anthropic", "claude-3-5-haiku"},
		RolePhysiologyExpert: {"anthropic", "claude-3-5-haiku"},
		RoleActivityExpert:   {"anthropic", "claude-3-5-haiku"},
		RoleSynthesis:        {"anthropic", "claude-3-5-haiku"},
		RoleSeasonPlanner:    {"anthropic", "claude-3-5-haiku"},
		RoleDataIntegration:  {"anthropic", "claude-3-5-haiku"},
		RoleWeeklyPlanner:    {"anthropic", "claude-3-5-haiku"},
		RoleFormatter:        {"anthropic", "claude-3-5-haiku"},
	},
	ModeStandard: {
		RoleSummarizer:       {"anthropic", "claude-3-5-haiku"},
		RoleMetricsExpert:    {"anthropic", "claude-sonnet-4-0"},
		RolePhysiologyExpert: {"anthropic", "claude-sonnet-4-0"},
		RoleActivityExpert:   {"anthropic", "claude-sonnet-4-0"},
		RoleSynthesis:        {"anthropic", "claude-sonnet-4-0"},
		RoleSeasonPlanner:    {"anthropic", "claude-sonnet-4-0"},
		RoleDataIntegration:  {"anthropic", "claude-3-5-haiku"},
		RoleWeeklyPlanner:    {"anthropic", "claude-sonnet-4-0"},
		RoleFormatter:        {"anthropic", "claude-sonnet-4-0"},
	},
	ModeCostEffective: {
		RoleSummarizer:       {"anthropic", "claude-3-5-haiku"},
		RoleMetricsExpert:    {"anthropic", "claude-3-5-haiku"},
		RolePhysiologyExpert: {"anthropic", "claude-3-5-haiku"},
		RoleActivityExpert:   {"openai", "gpt-4o-mini"},
		RoleSynthesis:        {"openai", "gpt-4o-mini"},
		RoleSeasonPlanner:    {"anthropic", "claude-3-5-haiku"},
		RoleDataIntegration:  {"anthropic", "claude-3-5-haiku"},
		RoleWeeklyPlanner:    {"anthropic", "claude-3-5-haiku"},
		RoleFormatter:        {"openai", "gpt-4o-mini"},
	},
}

// ModelSelector resolves a role to a concrete provider and model for the
// configured mode.
type ModelSelector struct {
	mode        Mode
	registry    *llm.Registry
	assignments map[Role]Assignment
}

// NewModelSelector builds a selector for one operating mode. Custom
// assignments override the built-in table per role.
func NewModelSelector(mode Mode, registry *llm.Registry, overrides map[Role]Assignment) (*ModelSelector, error) {
	base, ok := modelAssignments[mode]
	if !ok {
		return nil, fmt.Errorf("unknown mode %q (valid: %s, %s, %s)",
			mode, ModeDevelopment, ModeStandard, ModeCostEffective)
	}
	assignments := make(map[Role]Assignment, len(base))
	for role, a := range base {
		assignments[role] = a
	}
	for role, a := range overrides {
		assignments[role] = a
	}
	return &ModelSelector{mode: mode, registry: registry, assignments: assignments}, nil
}

// Mode returns the selector's operating mode.
func (s *ModelSelector) Mode() Mode {
	return s.mode
}

// Resolve returns the provider and model backing a role.
func (s *ModelSelector) Resolve(role Role) (llm.Provider, string, error) {
	assignment, ok := s.assignments[role]
	if !ok {
		return nil, "", fmt.Errorf("no model assignment for role %q in mode %q", role, s.mode)
	}
	provider, err := s.registry.Get(assignment.Provider)
	if err != nil {
		return nil, "", fmt.Errorf("role %q needs provider %q: %w", role, assignment.Provider, err)
	}
	return provider, assignment.Model, nil
}

// Validate checks that every pipeline role resolves to a registered provider.
// Run this before extraction so credential problems surface immediately.
func (s *ModelSelector) Validate() error {
	var missing []string
	for _, role := range AllRoles() {
		if _, _, err := s.Resolve(role); err != nil {
			missing = append(missing, fmt.Sprintf("%s: %v", role, err))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("unresolvable model assignments:\n  %s", joinLines(missing))
	}
	return nil
}

func joinLines(lines []string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n  "
		}
		out += line
	}
	return out
}
