package agent

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPersonasYAML []byte

// Persona configures one agent: who it is, how it is prompted, and how many
// tool-loop iterations it may use.
type Persona struct {
	Name         string `yaml:"name"`
	System       string `yaml:"system"`
	User         string `yaml:"user"`
	MaxToolCalls int    `yaml:"max_tool_calls"`
}

// defaultMaxToolCalls bounds an agent's tool loop when the persona does not
// set its own limit.
const defaultMaxToolCalls = 15

// PersonaSet holds the persona records for every pipeline agent.
type PersonaSet struct {
	personas map[string]Persona
}

// requiredPersonas are the records every persona file must provide.
var requiredPersonas = []string{
	"summarizer", "activity_summarizer",
	"metrics_expert", "physiology_expert", "activity_expert",
	"synthesis", "season_planner", "data_integration", "weekly_planner",
	"formatter", "plan_formatter",
}

// DefaultPersonas returns the embedded persona set.
func DefaultPersonas() (*PersonaSet, error) {
	return parsePersonas(defaultPersonasYAML)
}

// LoadPersonas reads a persona override file. The file must define every
// required persona; partial overrides are rejected so a stale file cannot
// silently fall back to embedded prompts for some agents.
func LoadPersonas(path string) (*PersonaSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read personas file: %w", err)
	}
	set, err := parsePersonas(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid personas file %s: %w", path, err)
	}
	return set, nil
}

func parsePersonas(raw []byte) (*PersonaSet, error) {
	personas := map[string]Persona{}
	if err := yaml.Unmarshal(raw, &personas); err != nil {
		return nil, err
	}

	var missing []string
	for _, key := range requiredPersonas {
		p, ok := personas[key]
		if !ok || p.System == "" || p.User == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing or incomplete personas: %s", strings.Join(missing, ", "))
	}
	return &PersonaSet{personas: personas}, nil
}

// Get returns the persona for an agent key.
func (s *PersonaSet) Get(key string) (Persona, error) {
	p, ok := s.personas[key]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona %q", key)
	}
	if p.MaxToolCalls <= 0 {
		p.MaxToolCalls = defaultMaxToolCalls
	}
	return p, nil
}

// renderPrompt substitutes {placeholder} tokens in a persona template.
// Unknown placeholders are left in place so prompt bugs are visible in the
// rendered output instead of silently dropping content.
func renderPrompt(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
