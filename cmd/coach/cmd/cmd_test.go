package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.yaml")

	rootCmd.SetArgs([]string{"init-config", path})
	require.NoError(t, rootCmd.Execute())
	_, err := os.Stat(path)
	require.NoError(t, err)

	// Refuses to clobber an existing config.
	rootCmd.SetArgs([]string{"init-config", path})
	require.Error(t, rootCmd.Execute())
}

func TestExecutionsCommandEmptyDir(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "coach.yaml")
	content := "athlete:\n  name: Ada\n  email: ada@example.com\ncheckpoint_dir: " +
		filepath.Join(dir, "executions") + "\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o644))

	rootCmd.SetArgs([]string{"executions", "--config", cfgFile})
	require.NoError(t, rootCmd.Execute())
}

func TestColorStatus(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	assert.Equal(t, "completed", colorStatus("completed"))
	assert.Equal(t, "suspended", colorStatus("suspended"))
	assert.Equal(t, "unknown", colorStatus("unknown"))
}

func TestIsCancelAnswer(t *testing.T) {
	for _, answer := range []string{"cancel", "Cancel", "QUIT", " exit ", "\tquit\n"} {
		assert.True(t, isCancelAnswer(answer), "answer %q should cancel", answer)
	}
	for _, answer := range []string{"", "continue", "cancel the plan", "exit strategy", "yes"} {
		assert.False(t, isCancelAnswer(answer), "answer %q should not cancel", answer)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		logLevel = level
		assert.NotNil(t, newLogger())
	}
	logLevel = "info"
}
