package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultTerminateGrace = 2 * time.Second
	defaultWaitDelay      = 5 * time.Second
	tailSize              = 8 << 10
)

// CommandSpec describes one build or test subprocess.
type CommandSpec struct {
	Dir  string
	Argv []string
	// Env is appended to the inherited environment.
	Env []string
	// Timeout of zero means no deadline.
	Timeout time.Duration
	// Output receives combined stdout and stderr.
	Output io.Writer
}

// CommandResult describes how a subprocess finished.
type CommandResult struct {
	ExitCode  int
	Duration  time.Duration
	TimedOut  bool
	Cancelled bool
	// Tail is the last few kilobytes of combined output.
	Tail string
}

// Success reports whether the command exited zero on its own.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut && !r.Cancelled
}

// TestRunnerAdapter abstracts running the toolchain's build and test commands.
type TestRunnerAdapter interface {
	// Run executes the command and waits for it, its process group included.
	// Only a failure to start is returned as an error.
	Run(ctx context.Context, spec CommandSpec) (CommandResult, error)
}

// LocalTestRunnerAdapter runs subprocesses with os/exec in their own process group.
type LocalTestRunnerAdapter struct {
	grace time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter with a 2s termination grace.
func NewLocalTestRunnerAdapter() *LocalTestRunnerAdapter {
	return &LocalTestRunnerAdapter{grace: defaultTerminateGrace}
}

// Run starts the command, enforcing spec.Timeout and ctx cancellation by
// terminating the whole process group.
func (a *LocalTestRunnerAdapter) Run(ctx context.Context, spec CommandSpec) (CommandResult, error) {
	if len(spec.Argv) == 0 {
		return CommandResult{}, errors.New("empty command")
	}

	// #nosec G204 - argv is built from the toolchain name and package patterns
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.WaitDelay = defaultWaitDelay

	tail := &tailBuffer{limit: tailSize}

	var out io.Writer = tail
	if spec.Output != nil {
		out = io.MultiWriter(spec.Output, tail)
	}

	cmd.Stdout = out
	cmd.Stderr = out

	setProcessGroup(cmd)

	start := time.Now()

	if err := cmd.Start(); err != nil {
		return CommandResult{}, fmt.Errorf("failed to start %s: %w", spec.Argv[0], err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var deadline <-chan time.Time

	if spec.Timeout > 0 {
		timer := time.NewTimer(spec.Timeout)
		defer timer.Stop()

		deadline = timer.C
	}

	var (
		result  CommandResult
		waitErr error
	)

	select {
	case waitErr = <-done:
	case <-deadline:
		result.TimedOut = true
		waitErr = a.terminate(cmd, done)
	case <-ctx.Done():
		result.Cancelled = true
		waitErr = a.terminate(cmd, done)
	}

	result.Duration = time.Since(start)
	result.ExitCode = exitCode(waitErr)
	result.Tail = tail.String()

	return result, nil
}

// terminate asks the process group to stop, then kills it after the grace period.
func (a *LocalTestRunnerAdapter) terminate(cmd *exec.Cmd, done <-chan error) error {
	_ = terminateGroup(cmd)

	select {
	case err := <-done:
		return err
	case <-time.After(a.grace):
	}

	_ = killGroup(cmd)

	return <-done
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}

	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return string(t.buf)
}
