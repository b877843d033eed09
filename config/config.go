// Package config loads and validates the run configuration for a coaching
// session.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed template.yaml
var templateYAML []byte

// Competition is one target event on the athlete's calendar.
type Competition struct {
	Name           string `yaml:"name" json:"name"`
	Date           string `yaml:"date" json:"date"`
	Category       string `yaml:"category" json:"category"`
	Priority       string `yaml:"priority" json:"priority"`
	TargetDuration string `yaml:"target_duration,omitempty" json:"target_duration,omitempty"`
}

// Extraction controls how much history is pulled from Garmin Connect.
type Extraction struct {
	ActivityDays int `yaml:"activity_days" json:"activity_days"`
	MetricsDays  int `yaml:"metrics_days" json:"metrics_days"`
}

// Athlete identifies the Garmin account and how to address its owner.
type Athlete struct {
	Name     string `yaml:"name" json:"name"`
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config is the full run configuration. YAML or JSON, chosen by file
// extension.
type Config struct {
	Athlete         Athlete       `yaml:"athlete" json:"athlete"`
	AnalysisContext string        `yaml:"analysis_context,omitempty" json:"analysis_context,omitempty"`
	PlanningContext string        `yaml:"planning_context,omitempty" json:"planning_context,omitempty"`
	Competitions    []Competition `yaml:"competitions,omitempty" json:"competitions,omitempty"`
	Extraction      Extraction    `yaml:"extraction,omitempty" json:"extraction,omitempty"`
	OutputDir       string        `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
	Mode            string        `yaml:"mode,omitempty" json:"mode,omitempty"`
	PlottingEnabled bool          `yaml:"plotting_enabled,omitempty" json:"plotting_enabled,omitempty"`
	HITLEnabled     bool          `yaml:"hitl_enabled,omitempty" json:"hitl_enabled,omitempty"`
	CheckpointDir   string        `yaml:"checkpoint_dir,omitempty" json:"checkpoint_dir,omitempty"`
}

var validPriorities = map[string]bool{"A": true, "B": true, "C": true}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &cfg)
	default:
		err = yaml.Unmarshal(raw, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Extraction.ActivityDays == 0 {
		c.Extraction.ActivityDays = 21
	}
	if c.Extraction.MetricsDays == 0 {
		c.Extraction.MetricsDays = 56
	}
	if c.OutputDir == "" {
		c.OutputDir = "reports"
	}
	if c.Mode == "" {
		c.Mode = "standard"
	}
}

// Validate fails fast on anything that would waste an LLM call downstream.
func (c *Config) Validate() error {
	if c.Athlete.Email == "" {
		return fmt.Errorf("athlete.email is required")
	}
	if c.Athlete.Name == "" {
		return fmt.Errorf("athlete.name is required")
	}
	if c.Extraction.ActivityDays < 1 {
		return fmt.Errorf("extraction.activity_days must be positive, got %d", c.Extraction.ActivityDays)
	}
	if c.Extraction.MetricsDays < 1 {
		return fmt.Errorf("extraction.metrics_days must be positive, got %d", c.Extraction.MetricsDays)
	}
	switch c.Mode {
	case "development", "standard", "cost_effective":
	default:
		return fmt.Errorf("mode %q is not one of development, standard, cost_effective", c.Mode)
	}
	for i, comp := range c.Competitions {
		if comp.Name == "" {
			return fmt.Errorf("competitions[%d]: name is required", i)
		}
		if _, err := time.Parse(time.DateOnly, comp.Date); err != nil {
			return fmt.Errorf("competitions[%d] (%s): date %q is not ISO-8601 (YYYY-MM-DD)", i, comp.Name, comp.Date)
		}
		if comp.Priority != "" && !validPriorities[comp.Priority] {
			return fmt.Errorf("competitions[%d] (%s): priority %q is not one of A, B, C", i, comp.Name, comp.Priority)
		}
	}
	return nil
}

// CompetitionMaps renders the competition list in the plain shape stored in
// workflow state.
func (c *Config) CompetitionMaps() ([]map[string]any, error) {
	raw, err := json.Marshal(c.Competitions)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

// WriteTemplate writes the annotated starter config. It refuses to clobber
// an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, templateYAML, 0o644)
}
