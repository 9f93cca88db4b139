// Package exec runs external commands behind an interface so callers can
// substitute a fake in tests.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os"
	osexec "os/exec"
	"time"
)

// DefaultTimeout bounds any command run without an explicit timeout.
const DefaultTimeout = 5 * time.Second

// RunOpts configures a single command invocation.
type RunOpts struct {
	Dir     string
	Env     map[string]string // merged over the current environment
	Timeout time.Duration     // zero means DefaultTimeout
}

// CmdResult holds captured output of a finished command.
// A non-zero ExitCode is not an error; callers interpret it.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error)
	LookPath(file string) (string, error)
}

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = errors.New("command timed out")

// RealRunner runs commands with os/exec.
type RealRunner struct{}

// NewRealRunner returns a CommandRunner backed by os/exec.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes name with args. It returns an error only when the command
// could not be started or was killed by the timeout or ctx.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = 500 * time.Millisecond
	if len(opts.Env) > 0 {
		env := os.Environ()
		for k, v := range opts.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CmdResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		return result, ErrTimeout
	}
	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// LookPath searches PATH for file.
func (r *RealRunner) LookPath(file string) (string, error) {
	return osexec.LookPath(file)
}
