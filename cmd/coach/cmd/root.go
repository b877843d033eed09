// Package cmd implements the coach command line interface.
package cmd

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leonzzz435/garmin-ai-coach/config"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// ErrCancelled signals that the user declined to continue a suspended run.
// The process exits with code 130, matching an interactive interrupt.
var ErrCancelled = errors.New("run cancelled by user")

var (
	cfgPath      string
	logLevel     string
	logFormat    string
	noColor      bool
	outputDir    string
	personasPath string
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "AI training analysis and planning from Garmin Connect data",
	Long: `coach pulls training data from Garmin Connect, runs it through a
multi-agent analysis and planning pipeline, and writes HTML reports plus
intermediate artifacts to the output directory.

Provider API keys are read from ANTHROPIC_API_KEY, OPENAI_API_KEY, and
OPENROUTER_API_KEY.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command. Errors are printed here so main only maps
// them to exit codes.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, ErrCancelled) {
		color.Red("Error: %v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "coach.yaml",
		"path to the run configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "",
		"override the configured output directory")
	rootCmd.PersistentFlags().StringVar(&personasPath, "personas", "",
		"path to a persona overrides file")
}

func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if logFormat == "json" {
		return workflow.NewJSONLogger(level)
	}
	return workflow.NewLogger(level)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	return cfg, nil
}
