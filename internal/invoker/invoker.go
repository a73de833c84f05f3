// Package invoker runs external commands on behalf of the pipeline stages,
// capturing their output streams and classifying non-zero exits.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"bobbin/internal/services"
)

var commandContext = exec.CommandContext

// Command describes one external tool invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// ToolError reports a failed external tool invocation. It carries the
// command line and the captured standard error so stage failures stay
// diagnosable without rerunning the tool.
type ToolError struct {
	Name     string
	Args     []string
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ToolError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail != "" {
		return fmt.Sprintf("%s %s: %v: %s", e.Name, strings.Join(e.Args, " "), e.Err, detail)
	}
	return fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
}

func (e *ToolError) Unwrap() error {
	if e.TimedOut {
		return services.ErrTimeout
	}
	return services.ErrExternalTool
}

// Run starts the command, waits for it to exit, and returns its captured
// standard output. A non-zero exit or an elapsed timeout yields a *ToolError;
// the spawned process is always reaped before Run returns.
func Run(ctx context.Context, cmd Command) (string, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return "", services.Wrap(services.ErrValidation, "invoker", "run", "command name required", nil)
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := commandContext(runCtx, cmd.Name, cmd.Args...) //nolint:gosec
	if cmd.Dir != "" {
		proc.Dir = cmd.Dir
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	if err == nil {
		return stdout.String(), nil
	}

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	if timedOut {
		err = fmt.Errorf("timed out after %s: %w", cmd.Timeout, err)
	}
	return "", &ToolError{
		Name:     cmd.Name,
		Args:     append([]string(nil), cmd.Args...),
		Stderr:   stderr.String(),
		TimedOut: timedOut,
		Err:      err,
	}
}
