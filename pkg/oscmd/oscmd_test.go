package oscmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteFirstLine(t *testing.T) {
	out, err := Execute(context.Background(), "echo hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestExecuteShortLivedCommandKeepsOutput(t *testing.T) {
	// A command that exits immediately must not lose its output to the
	// pipe being torn down before the scanner reads it. Run it many
	// times since the loss is a race, not a deterministic failure.
	for i := 0; i < 100; i++ {
		out, err := Execute(context.Background(), "echo hello")
		require.NoError(t, err)
		require.Equalf(t, "hello", out, "iteration %d dropped the first line", i)
	}
}

func TestExecuteReturnsOnlyFirstLine(t *testing.T) {
	out, err := Execute(context.Background(), `printf 'first\nsecond\n'`, WithShell())
	require.NoError(t, err)
	assert.Equal(t, "first", out)
}

func TestExecuteShellPipeline(t *testing.T) {
	out, err := Execute(context.Background(), "echo one two three | wc -w", WithShell())
	require.NoError(t, err)
	assert.Contains(t, out, "3")
}

func TestExecuteEmptyCommand(t *testing.T) {
	_, err := Execute(context.Background(), "   ")
	assert.Error(t, err)
}

func TestExecuteTimeoutWithoutOutput(t *testing.T) {
	start := time.Now()
	out, err := Execute(context.Background(), "sleep 5", WithTimeout(100*time.Millisecond))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExecuteExpectOutput(t *testing.T) {
	_, err := Execute(context.Background(), "sleep 5",
		WithTimeout(100*time.Millisecond), WithExpectOutput())
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, "sleep 5", WithTimeout(5*time.Second))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteWithDir(t *testing.T) {
	dir := t.TempDir()
	out, err := Execute(context.Background(), "pwd", WithDir(dir))
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}
