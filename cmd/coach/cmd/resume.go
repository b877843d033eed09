package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <execution-id>",
	Short: "Answer pending questions and continue a suspended run",
	Long: `resume loads the latest checkpoint of a suspended or failed run,
prompts for any pending questions, and continues from where it stopped.
Completed stages are not re-run and their cost is not paid again.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	priorID := args[0]

	executionID := workflow.NewExecutionID()
	p, err := newPipeline(ctx, executionID)
	if err != nil {
		return err
	}
	defer p.close()

	checkpoint, err := p.checkpointer.LoadCheckpoint(ctx, priorID)
	if err != nil {
		return err
	}
	if checkpoint == nil {
		return fmt.Errorf("no checkpoint found for execution %q", priorID)
	}
	if workflow.ExecutionStatus(checkpoint.Status) == workflow.ExecutionStatusCompleted {
		return fmt.Errorf("execution %s already completed; its reports are in the output directory", priorID)
	}

	answers := map[string][]string{}
	if len(checkpoint.Interrupts) > 0 {
		var cancelled bool
		answers, cancelled, err = collectAnswers(checkpoint.Interrupts)
		if err != nil {
			return err
		}
		if cancelled {
			return ErrCancelled
		}
	}

	exec, err := workflow.NewExecution(workflow.ExecutionOptions{
		Workflow:     p.wf,
		Checkpointer: p.checkpointer,
		Logger:       p.logger,
		Callbacks:    &progressCallbacks{},
		ExecutionID:  executionID,
	})
	if err != nil {
		return err
	}

	color.Cyan("Resuming execution %s as %s", priorID, executionID)
	final, lastID, runErr := p.drive(ctx, exec, func(e *workflow.Execution) (*workflow.State, error) {
		return e.Resume(ctx, priorID, answers)
	})
	return p.finish(final, lastID, runErr)
}
