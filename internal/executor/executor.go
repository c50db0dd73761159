package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result holds the outcome of a single command execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ErrTimeout is returned when a command exceeds its watchdog timeout.
var ErrTimeout = errors.New("command timed out")

// CommandExecutor is an interface for executing system commands
type CommandExecutor interface {
	// Run executes a command with the given argument vector and a watchdog
	// timeout. Arguments are passed as discrete tokens, never through a
	// shell. A non-zero exit reports in Result.ExitCode, not as an error;
	// the error return covers spawn failures and timeouts only.
	Run(name string, args []string, timeout time.Duration) (Result, error)

	// LookPath searches for an executable in the directories named by the PATH
	LookPath(file string) (string, error)
}

// SystemExecutor implements CommandExecutor using os/exec
type SystemExecutor struct{}

// NewSystemExecutor creates a new SystemExecutor
func NewSystemExecutor() *SystemExecutor {
	return &SystemExecutor{}
}

// Run executes a command and captures stdout and stderr separately
func (e *SystemExecutor) Run(name string, args []string, timeout time.Duration) (Result, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return res, ErrTimeout
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}

	return res, nil
}

// LookPath searches for an executable
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// MockExecutor is a mock implementation for testing
type MockExecutor struct {
	RunFunc      func(name string, args []string, timeout time.Duration) (Result, error)
	LookPathFunc func(file string) (string, error)
	Calls        []CommandCall

	// Script holds pre-seeded results returned in order when RunFunc is
	// nil. When the script runs out an empty success result is returned.
	Script []Result
}

// CommandCall records a command execution for verification
type CommandCall struct {
	Name string
	Args []string
}

// Run records the call and returns the next scripted result
func (m *MockExecutor) Run(name string, args []string, timeout time.Duration) (Result, error) {
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args})
	if m.RunFunc != nil {
		return m.RunFunc(name, args, timeout)
	}
	if len(m.Script) > 0 {
		res := m.Script[0]
		m.Script = m.Script[1:]
		return res, nil
	}
	return Result{}, nil
}

// LookPath calls the mock function
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}
