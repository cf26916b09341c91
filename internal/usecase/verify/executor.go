package verify

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// CommandResult captures one subprocess invocation. A non-zero exit or a
// timeout is a normal result, not an error; Run returns an error only when
// the process could not be started at all.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// CommandExecutor abstracts subprocess execution so build/test invocation is
// testable with a fake and never goes through a shell. Arguments are passed
// as an argv vector; untrusted fields are validated before they reach here.
type CommandExecutor interface {
	Run(ctx context.Context, name string, args []string, dir string, timeout time.Duration) (CommandResult, error)
}

type execExecutor struct{}

func NewExecExecutor() CommandExecutor {
	return execExecutor{}
}

func (execExecutor) Run(ctx context.Context, name string, args []string, dir string, timeout time.Duration) (CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return CommandResult{}, err
	}
	if strings.TrimSpace(name) == "" {
		return CommandResult{}, errors.New("command name is required")
	}

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return CommandResult{}, runErr
	}

	result.ExitCode = 0
	return result, nil
}
