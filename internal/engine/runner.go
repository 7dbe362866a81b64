// Package engine launches the external analysis engine. A call to Run
// returns only after the engine has exited, at which point any artifact it
// produced is complete.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"lgtnav/internal/config"
	"lgtnav/internal/errors"
)

// Runner runs one analysis to completion.
type Runner interface {
	Run(ctx context.Context, req Request) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req Request) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// ExecRunner runs the engine as a child process per request.
type ExecRunner struct {
	command string
	args    []string
	tool    string
	timeout time.Duration
	env     []string
	logger  *slog.Logger
}

// NewExecRunner creates a runner from engine configuration.
func NewExecRunner(cfg config.EngineConfig, logger *slog.Logger) *ExecRunner {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	slices.Sort(env)

	return &ExecRunner{
		command: cfg.Command,
		args:    slices.Clone(cfg.Args),
		tool:    cfg.Tool,
		timeout: timeout,
		env:     env,
		logger:  logger,
	}
}

// LookPath reports where the engine command resolves.
func (r *ExecRunner) LookPath() (string, error) {
	return exec.LookPath(r.command)
}

// Args returns the argument list for req with the goal substituted.
func (r *ExecRunner) Args(req Request) ([]string, error) {
	goal, err := Goal(r.tool, req)
	if err != nil {
		return nil, err
	}
	args := make([]string, len(r.args))
	for i, a := range r.args {
		args[i] = strings.ReplaceAll(a, config.GoalPlaceholder, goal)
	}
	return args, nil
}

// Run executes the engine in the workspace root and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, req Request) error {
	args, err := r.Args(req)
	if err != nil {
		return errors.New(errors.InvalidRequest, "cannot build engine goal", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = req.Root
	// children that inherit stdout must not hold Run open past the deadline
	cmd.WaitDelay = 2 * time.Second
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		msg := fmt.Sprintf("engine %s failed for %s", r.command, req.Kind)
		if ctx.Err() == context.DeadlineExceeded {
			msg = fmt.Sprintf("engine %s timed out after %s for %s", r.command, r.timeout, req.Kind)
		}
		return errors.New(errors.EngineFailed, msg, err).WithDetails(map[string]any{
			"stderr": strings.TrimSpace(stderr.String()),
		})
	}

	r.logger.Debug("Engine finished",
		"kind", string(req.Kind),
		"duration_ms", elapsed.Milliseconds(),
		"stdout_bytes", stdout.Len(),
	)
	return nil
}
