package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leonzzz435/garmin-ai-coach/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write an annotated starter configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := "coach.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteTemplate(path); err != nil {
			return err
		}
		color.Green("Wrote %s", path)
		fmt.Println("Edit the athlete section, then start a run with: coach run")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
