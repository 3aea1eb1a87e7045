// Package oscmd runs external commands and captures their first line
// of output within a deadline.
package oscmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNoOutput is returned when a command produced no output before
// the timeout and output was expected.
var ErrNoOutput = errors.New("oscmd: command produced no output")

// DefaultTimeout bounds how long Execute waits for the first line.
const DefaultTimeout = 3 * time.Second

type options struct {
	shell        bool
	dir          string
	timeout      time.Duration
	expectOutput bool
}

// Option configures a single Execute call.
type Option func(*options)

// WithShell runs the command through "sh -c" instead of splitting it
// into an argv.
func WithShell() Option {
	return func(o *options) { o.shell = true }
}

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithTimeout bounds the wait for the first output line. Zero or
// negative means do not wait at all.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithExpectOutput makes an empty result an error instead of an
// empty string.
func WithExpectOutput() Option {
	return func(o *options) { o.expectOutput = true }
}

// Execute starts command and returns its first line of standard
// output, waiting at most the configured timeout. The command keeps
// running after Execute returns; canceling ctx kills it.
func Execute(ctx context.Context, command string, opts ...Option) (string, error) {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.New("oscmd: empty command")
	}

	var cmd *exec.Cmd
	if o.shell {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	} else {
		argv := strings.Fields(command)
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	}
	cmd.Dir = o.dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("oscmd: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("oscmd: start %q: %w", command, err)
	}

	// One goroutine both scans and reaps: Wait closes the stdout pipe,
	// so it must not start until the scan loop has drained it.
	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			default:
			}
		}
		close(lines)
		cmd.Wait()
	}()

	var timeoutCh <-chan time.Time
	if o.timeout > 0 {
		timer := time.NewTimer(o.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	} else {
		expired := make(chan time.Time)
		close(expired)
		timeoutCh = expired
	}

	select {
	case line, ok := <-lines:
		if !ok {
			break
		}
		return line, nil
	case <-ctx.Done():
		return "", fmt.Errorf("oscmd: %q: %w", command, ctx.Err())
	case <-timeoutCh:
	}

	if o.expectOutput {
		return "", fmt.Errorf("%w: %q", ErrNoOutput, command)
	}
	return "", nil
}
