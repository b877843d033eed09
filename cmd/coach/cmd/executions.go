package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

var executionsCmd = &cobra.Command{
	Use:   "executions",
	Short: "List checkpointed executions",
	Long: `executions lists the runs recorded in the local checkpoint
directory, newest first. Suspended runs can be continued with resume.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := defaultCheckpointDir
		if cfg, err := loadConfig(); err == nil && cfg.CheckpointDir != "" {
			dir = cfg.CheckpointDir
		}

		cp, err := workflow.NewFileCheckpointer(dir)
		if err != nil {
			return err
		}
		summaries, err := cp.ListExecutions(cmd.Context())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No executions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EXECUTION\tSTATUS\tSTARTED\tDURATION\tERROR")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.ExecutionID,
				colorStatus(s.Status),
				s.StartTime.Format(time.RFC3339),
				s.Duration.Round(time.Second),
				s.Error,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(executionsCmd)
}

func colorStatus(status string) string {
	switch workflow.ExecutionStatus(status) {
	case workflow.ExecutionStatusCompleted:
		return color.GreenString(status)
	case workflow.ExecutionStatusSuspended:
		return color.YellowString(status)
	case workflow.ExecutionStatusFailed:
		return color.RedString(status)
	default:
		return status
	}
}
