//go:build unix

package adapter

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLocalTestRunnerAdapter_Run_GoTest(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the go toolchain")
	}

	adapter := NewLocalTestRunnerAdapter()
	var log bytes.Buffer

	result, err := adapter.Run(context.Background(), CommandSpec{
		Dir:    examplePath(t, "basic"),
		Argv:   []string{"go", "test", "-count=1", "./..."},
		Output: &log,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !result.Success() {
		t.Fatalf("Run() exit = %d, output = %s", result.ExitCode, log.String())
	}

	if !strings.Contains(log.String(), "ok") {
		t.Fatalf("output does not look like go test output: %q", log.String())
	}
}

func TestLocalTestRunnerAdapter_Run_ExitCode(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter()

	result, err := adapter.Run(context.Background(), CommandSpec{
		Argv: []string{"sh", "-c", "echo failing; exit 3"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ExitCode != 3 || result.Success() {
		t.Fatalf("Run() exit = %d, want 3", result.ExitCode)
	}

	if !strings.Contains(result.Tail, "failing") {
		t.Fatalf("Run() tail = %q", result.Tail)
	}
}

func TestLocalTestRunnerAdapter_Run_Env(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter()

	result, err := adapter.Run(context.Background(), CommandSpec{
		Argv: []string{"sh", "-c", "echo $MUTANTS_PROBE"},
		Env:  []string{"MUTANTS_PROBE=visible"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if strings.TrimSpace(result.Tail) != "visible" {
		t.Fatalf("Run() tail = %q", result.Tail)
	}
}

func TestLocalTestRunnerAdapter_Run_TimeoutKillsGroup(t *testing.T) {
	adapter := &LocalTestRunnerAdapter{grace: 200 * time.Millisecond}

	start := time.Now()
	result, err := adapter.Run(context.Background(), CommandSpec{
		Argv:    []string{"sh", "-c", "sleep 30 & sleep 30; wait"},
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !result.TimedOut {
		t.Fatalf("Run() did not time out: %+v", result)
	}

	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Run() took %v, process group was not killed", elapsed)
	}
}

func TestLocalTestRunnerAdapter_Run_Cancelled(t *testing.T) {
	adapter := &LocalTestRunnerAdapter{grace: 200 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	result, err := adapter.Run(ctx, CommandSpec{Argv: []string{"sleep", "30"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !result.Cancelled || result.Success() {
		t.Fatalf("Run() = %+v, want cancelled", result)
	}
}

func TestLocalTestRunnerAdapter_Run_StartFailure(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter()

	if _, err := adapter.Run(context.Background(), CommandSpec{Argv: []string{"definitely-not-a-command-xyzzy"}}); err == nil {
		t.Fatal("Run() expected start error")
	}

	if _, err := adapter.Run(context.Background(), CommandSpec{}); err == nil {
		t.Fatal("Run() expected error for empty argv")
	}
}

func TestTailBuffer_KeepsEnd(t *testing.T) {
	tail := &tailBuffer{limit: 4}
	_, _ = tail.Write([]byte("abc"))
	_, _ = tail.Write([]byte("defg"))

	if got := tail.String(); got != "defg" {
		t.Fatalf("tail = %q", got)
	}
}
