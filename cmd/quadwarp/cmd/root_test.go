package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes a fresh command tree and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := GetRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := GetRootCommand()
	assert.Equal(t, "quadwarp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	stdout, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Available Commands:")
	assert.Contains(t, stdout, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	stdout, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "commit:")
}

func TestRootCommandSubcommands(t *testing.T) {
	var names []string
	for _, sub := range GetRootCommand().Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"estimate", "map", "warp", "render", "serve", "config", "bench"} {
		assert.Contains(t, names, want, "Expected subcommand '%s' not found", want)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, _, err := run(t, "--definitely-not-a-flag")
	require.Error(t, err)
}

func TestRootCommandInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "config", "show", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestRootCommandFreshState(t *testing.T) {
	// A flag set in one run must not leak into the next.
	stdout, _, err := run(t, "estimate", "--src", "0,0 1,0 1,1 0,1", "--dst", "0,0 1,0 1,1 0,1", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "column_major")

	stdout, _, err = run(t, "estimate", "--src", "0,0 1,0 1,1 0,1", "--dst", "0,0 1,0 1,1 0,1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[ 1.000000")
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := run(t, "-v", "estimate", "--src", "0,0 1,0 1,1 0,1", "--dst", "0,0 2,0 2,2 0,2")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "estimated homography")
	assert.Contains(t, stderr, `"msg":"estimated homography"`)
}
