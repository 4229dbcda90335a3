package setup

import (
	"context"
	"errors"
	"os/exec"
)

// Command is one external process invocation
type Command struct {
	Path string
	Args []string
	Dir  string
}

// Runner executes a command and returns its combined stdout and stderr.
// A non-zero exit is reported as an error together with its exit code.
type Runner interface {
	Run(ctx context.Context, cmd Command) (output []byte, exitCode int, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, exitErr.ExitCode(), err
		}
		return out, -1, err
	}
	return out, 0, nil
}
