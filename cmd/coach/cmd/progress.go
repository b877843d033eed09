package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// progressCallbacks prints per-node progress to the terminal while the
// pipeline runs.
type progressCallbacks struct {
	workflow.BaseExecutionCallbacks
}

func (p *progressCallbacks) BeforeNodeExecution(_ context.Context, event *workflow.NodeExecutionEvent) {
	fmt.Printf("  %s %s\n", color.CyanString("▸"), event.NodeName)
}

func (p *progressCallbacks) AfterNodeExecution(_ context.Context, event *workflow.NodeExecutionEvent) {
	switch event.Status {
	case workflow.NodeStatusCompleted:
		fmt.Printf("  %s %s (%s)\n", color.GreenString("✓"), event.NodeName,
			event.Duration.Round(100*time.Millisecond))
	case workflow.NodeStatusSuspended:
		fmt.Printf("  %s %s awaiting input\n", color.YellowString("…"), event.NodeName)
	case workflow.NodeStatusFailed:
		fmt.Printf("  %s %s: %v\n", color.RedString("✗"), event.NodeName, event.Error)
	}
}
