package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"github.com/leonzzz435/garmin-ai-coach/agent"
	"github.com/leonzzz435/garmin-ai-coach/config"
	"github.com/leonzzz435/garmin-ai-coach/garmin"
	"github.com/leonzzz435/garmin-ai-coach/llm/providers"
	"github.com/leonzzz435/garmin-ai-coach/report"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// keyringService namespaces Garmin credentials in the system keyring.
const keyringService = "garmin-ai-coach"

// EnvCheckpointDSN selects the Postgres checkpointer when set. Without it,
// checkpoints go to a local directory.
const EnvCheckpointDSN = "COACH_CHECKPOINT_DSN"

const defaultCheckpointDir = ".coach/executions"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract Garmin data and generate analysis and planning reports",
	Args:  cobra.NoArgs,
	RunE:  runCoach,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runCoach(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executionID := workflow.NewExecutionID()
	p, err := newPipeline(ctx, executionID)
	if err != nil {
		return err
	}
	defer p.close()

	data, err := extractData(ctx, p.cfg, p.logger)
	if err != nil {
		return err
	}

	competitions, err := p.cfg.CompetitionMaps()
	if err != nil {
		return err
	}
	initial, err := agent.BuildInitialState(agent.RunInputs{
		AthleteName:     p.cfg.Athlete.Name,
		Data:            data,
		AnalysisContext: p.cfg.AnalysisContext,
		PlanningContext: p.cfg.PlanningContext,
		Competitions:    competitions,
		PlottingEnabled: p.cfg.PlottingEnabled,
		HITLEnabled:     p.cfg.HITLEnabled,
		ExecutionID:     executionID,
	})
	if err != nil {
		return err
	}

	exec, err := workflow.NewExecution(workflow.ExecutionOptions{
		Workflow:     p.wf,
		State:        initial,
		Checkpointer: p.checkpointer,
		Logger:       p.logger,
		Callbacks:    &progressCallbacks{},
		ExecutionID:  executionID,
	})
	if err != nil {
		return err
	}

	color.Cyan("Starting analysis (execution %s)", executionID)
	final, lastID, runErr := p.drive(ctx, exec, func(e *workflow.Execution) (*workflow.State, error) {
		return e.Run(ctx)
	})
	return p.finish(final, lastID, runErr)
}

// pipeline bundles everything a run or resume needs.
type pipeline struct {
	cfg          *config.Config
	logger       *slog.Logger
	wf           *workflow.Workflow
	checkpointer workflow.Checkpointer
	close        func()
}

// newPipeline loads configuration, validates the model assignments against
// the available providers, and builds the workflow. Everything that can fail
// fails here, before any Garmin or LLM traffic.
func newPipeline(ctx context.Context, executionID string) (*pipeline, error) {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	registry, err := providers.RegisterFromEnv()
	if err != nil {
		return nil, err
	}
	if len(registry.Names()) == 0 {
		return nil, fmt.Errorf("no provider API keys found; set %s, %s, or %s",
			providers.EnvAnthropicAPIKey, providers.EnvOpenAIAPIKey, providers.EnvOpenRouterAPIKey)
	}
	selector, err := agent.NewModelSelector(agent.Mode(cfg.Mode), registry, nil)
	if err != nil {
		return nil, err
	}
	if err := selector.Validate(); err != nil {
		return nil, fmt.Errorf("mode %q cannot run with providers %v: %w",
			cfg.Mode, registry.Names(), err)
	}

	var personas *agent.PersonaSet
	if personasPath != "" {
		personas, err = agent.LoadPersonas(personasPath)
		if err != nil {
			return nil, err
		}
	}

	builder, err := agent.NewBuilder(agent.BuilderOptions{
		Selector:    selector,
		Personas:    personas,
		Logger:      logger,
		ExecutionID: executionID,
	})
	if err != nil {
		return nil, err
	}
	wf, err := builder.Build()
	if err != nil {
		return nil, err
	}

	checkpointer, closeFn, err := newCheckpointer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:          cfg,
		logger:       logger,
		wf:           wf,
		checkpointer: checkpointer,
		close:        closeFn,
	}, nil
}

func newCheckpointer(ctx context.Context, cfg *config.Config) (workflow.Checkpointer, func(), error) {
	if dsn := os.Getenv(EnvCheckpointDSN); dsn != "" {
		cp, err := workflow.NewPostgresCheckpointer(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return cp, func() { _ = cp.Close() }, nil
	}
	dir := cfg.CheckpointDir
	if dir == "" {
		dir = defaultCheckpointDir
	}
	cp, err := workflow.NewFileCheckpointer(dir)
	if err != nil {
		return nil, nil, err
	}
	return cp, func() {}, nil
}

// extractData signs in to Garmin Connect and pulls the configured data
// windows. A password entered at the prompt is stored in the keyring after
// a successful login.
func extractData(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*garmin.Data, error) {
	password, prompted, err := resolvePassword(cfg)
	if err != nil {
		return nil, err
	}

	client := garmin.NewClient()
	color.Cyan("Signing in to Garmin Connect as %s", cfg.Athlete.Email)
	if err := client.Login(ctx, cfg.Athlete.Email, password); err != nil {
		return nil, err
	}
	if prompted {
		if err := keyring.Set(keyringService, cfg.Athlete.Email, password); err != nil {
			logger.Warn("could not store password in keyring", "error", err)
		}
	}

	extractor := garmin.NewExtractor(client, logger)
	color.Cyan("Extracting %d days of activities and %d days of metrics",
		cfg.Extraction.ActivityDays, cfg.Extraction.MetricsDays)
	return extractor.Extract(ctx, garmin.Windows{
		ActivityDays: cfg.Extraction.ActivityDays,
		MetricsDays:  cfg.Extraction.MetricsDays,
	})
}

// resolvePassword checks the keyring, then the config file, then prompts.
func resolvePassword(cfg *config.Config) (string, bool, error) {
	if pw, err := keyring.Get(keyringService, cfg.Athlete.Email); err == nil && pw != "" {
		return pw, false, nil
	}
	if cfg.Athlete.Password != "" {
		return cfg.Athlete.Password, false, nil
	}
	var pw string
	prompt := &survey.Password{
		Message: fmt.Sprintf("Garmin Connect password for %s:", cfg.Athlete.Email),
	}
	if err := survey.AskOne(prompt, &pw, survey.WithValidator(survey.Required)); err != nil {
		return "", false, err
	}
	return pw, true, nil
}

// drive runs an execution to completion, collecting human answers and
// resuming for as long as nodes keep suspending. It returns the final state,
// the ID of the last execution attempt, and the terminal error if any.
func (p *pipeline) drive(ctx context.Context, exec *workflow.Execution, start func(*workflow.Execution) (*workflow.State, error)) (*workflow.State, string, error) {
	final, err := start(exec)
	priorID := exec.ID()
	for {
		var interruptErr *workflow.InterruptError
		if !errors.As(err, &interruptErr) {
			if final == nil {
				final = exec.State()
			}
			return final, priorID, err
		}

		answers, cancelled, askErr := collectAnswers(interruptErr.Interrupts)
		if askErr != nil {
			return exec.State(), priorID, askErr
		}
		if cancelled {
			return exec.State(), priorID, ErrCancelled
		}

		next, newErr := workflow.NewExecution(workflow.ExecutionOptions{
			Workflow:     p.wf,
			Checkpointer: p.checkpointer,
			Logger:       p.logger,
			Callbacks:    &progressCallbacks{},
		})
		if newErr != nil {
			return exec.State(), priorID, newErr
		}
		exec = next
		final, err = exec.Resume(ctx, priorID, answers)
		priorID = exec.ID()
	}
}

var cancelWords = map[string]bool{"cancel": true, "quit": true, "exit": true}

// isCancelAnswer reports whether an answer abandons the run instead of
// answering the question. Matching ignores case and surrounding whitespace.
func isCancelAnswer(answer string) bool {
	return cancelWords[strings.ToLower(strings.TrimSpace(answer))]
}

// collectAnswers prompts for each pending question. Answering cancel, quit,
// or exit abandons the run while keeping its artifacts and checkpoint.
func collectAnswers(interrupts []workflow.PendingInterrupt) (map[string][]string, bool, error) {
	fmt.Println()
	color.Yellow("The pipeline is waiting on %d question(s). Answer cancel, quit, or exit to stop.",
		len(interrupts))
	answers := make(map[string][]string, len(interrupts))
	for _, q := range interrupts {
		asker := q.Agent
		if asker == "" {
			asker = q.Node
		}
		color.Cyan("\n%s asks:", asker)
		if q.Context != "" {
			fmt.Println(q.Context)
		}
		var answer string
		prompt := &survey.Input{Message: q.Question}
		if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
			return nil, false, err
		}
		if isCancelAnswer(answer) {
			return nil, true, nil
		}
		answers[q.Node] = append(answers[q.Node], answer)
	}
	return answers, false, nil
}

// finish writes artifacts for whatever the run produced, then reports the
// outcome. Artifacts are written even when the run failed or was cancelled.
func (p *pipeline) finish(state *workflow.State, executionID string, runErr error) error {
	if state == nil {
		return runErr
	}
	writer, err := report.NewWriter(p.cfg.OutputDir, p.logger)
	if err != nil {
		return errors.Join(runErr, err)
	}
	summary, writeErr := writer.WriteAll(state, executionID)
	if summary != nil {
		printSummary(writer.Dir(), summary)
	}
	if errors.Is(runErr, ErrCancelled) {
		color.Yellow("Run cancelled. Resume later with: coach resume %s", executionID)
		return runErr
	}
	return errors.Join(runErr, writeErr)
}

func printSummary(dir string, summary *report.Summary) {
	fmt.Println()
	if len(summary.Files) > 0 {
		color.Green("Reports written to %s", dir)
		for _, f := range summary.Files {
			fmt.Printf("  %s\n", f)
		}
	}
	t := summary.Totals
	fmt.Printf("\n%d LLM requests, %d tokens, $%.4f (%s)\n",
		t.Requests, t.TotalTokens, t.Cost, t.CostAccuracy)
	if len(summary.Errors) > 0 {
		color.Yellow("%d stage(s) degraded:", len(summary.Errors))
		for _, e := range summary.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}
