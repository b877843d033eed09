package main

import (
	"errors"
	"os"

	"github.com/leonzzz435/garmin-ai-coach/cmd/coach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrCancelled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
