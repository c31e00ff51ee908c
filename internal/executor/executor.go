// Package executor runs package-manager commands with timeouts, sandbox escaping
// and an allow-list of programs.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotAllowed is returned for programs outside the allow-list.
var ErrNotAllowed = errors.New("command not allowed")

// Runner is what the backends need from an executor.
type Runner interface {
	// Output runs a query and returns its stdout. Queries run even in dry-run mode.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// Run executes a state-changing command.
	Run(ctx context.Context, name string, args ...string) error

	// Start launches a program without waiting for it to exit.
	Start(ctx context.Context, name string, args ...string) error
}

// CommandError describes a failed command.
type CommandError struct {
	Name     string
	Args     []string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
	if line := lastLine(e.Stderr); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Options configures an Executor.
type Options struct {
	DryRun  bool
	Verbose bool

	// Timeout bounds every command except Start. Zero disables it.
	Timeout time.Duration

	// Sandboxed prefixes commands with "flatpak-spawn --host".
	Sandboxed bool

	// AllowedPrograms are bare program names that may run.
	AllowedPrograms []string
	// AllowedDirs are directories whose executables may run by absolute path.
	AllowedDirs []string

	Logger zerolog.Logger
	Stdout io.Writer
}

// Executor is the Runner used outside tests.
type Executor struct {
	opts    Options
	allowed map[string]bool
	log     zerolog.Logger
}

// New creates an Executor.
func New(opts Options) *Executor {
	allowed := make(map[string]bool, len(opts.AllowedPrograms))
	for _, p := range opts.AllowedPrograms {
		allowed[p] = true
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Executor{
		opts:    opts,
		allowed: allowed,
		log:     opts.Logger.With().Str("component", "executor").Logger(),
	}
}

// SetDryRun enables or disables dry-run mode.
func (e *Executor) SetDryRun(dryRun bool) {
	e.opts.DryRun = dryRun
}

// SetVerbose enables or disables streaming of command output.
func (e *Executor) SetVerbose(verbose bool) {
	e.opts.Verbose = verbose
}

// Allow adds a directory whose executables may be started.
func (e *Executor) Allow(dir string) {
	e.opts.AllowedDirs = append(e.opts.AllowedDirs, dir)
}

// Output runs a command and returns its stdout.
func (e *Executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	return e.OutputIn(ctx, "", name, args...)
}

// OutputIn is Output with the working directory set to dir.
func (e *Executor) OutputIn(ctx context.Context, dir, name string, args ...string) (string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cmd, err := e.command(ctx, name, args)
	if err != nil {
		return "", err
	}
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug().Str("cmd", name).Strs("args", args).Msg("query")
	if err := cmd.Run(); err != nil {
		return stdout.String(), e.wrap(ctx, name, args, stderr.String(), err)
	}
	return stdout.String(), nil
}

// Run executes a command. In verbose mode stdout is streamed as well as captured.
func (e *Executor) Run(ctx context.Context, name string, args ...string) error {
	if e.opts.DryRun {
		fmt.Fprintf(e.opts.Stdout, "[dry-run] Would execute: %s %s\n", name, strings.Join(args, " "))
		return nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cmd, err := e.command(ctx, name, args)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if e.opts.Verbose {
		cmd.Stdout = e.opts.Stdout
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
	}

	e.log.Info().Str("cmd", name).Strs("args", args).Msg("execute")
	if err := cmd.Run(); err != nil {
		return e.wrap(ctx, name, args, stderr.String(), err)
	}
	return nil
}

// Start launches a program detached from ctx. The child is reaped in the background.
func (e *Executor) Start(ctx context.Context, name string, args ...string) error {
	if e.opts.DryRun {
		fmt.Fprintf(e.opts.Stdout, "[dry-run] Would start: %s %s\n", name, strings.Join(args, " "))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd, err := e.command(context.Background(), name, args)
	if err != nil {
		return err
	}

	e.log.Info().Str("cmd", name).Strs("args", args).Msg("start")
	if err := cmd.Start(); err != nil {
		return &CommandError{Name: name, Args: args, ExitCode: -1, Err: err}
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			e.log.Debug().Err(err).Str("cmd", name).Msg("process exited")
		}
	}()
	return nil
}

// Argv returns the final argument vector for name and args.
func (e *Executor) Argv(name string, args ...string) ([]string, error) {
	if !e.isAllowed(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, name)
	}
	argv := append([]string{name}, args...)
	if e.opts.Sandboxed {
		argv = append([]string{"flatpak-spawn", "--host"}, argv...)
	}
	return argv, nil
}

func (e *Executor) command(ctx context.Context, name string, args []string) (*exec.Cmd, error) {
	argv, err := e.Argv(name, args...)
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...), nil
}

func (e *Executor) isAllowed(name string) bool {
	if !filepath.IsAbs(name) {
		return e.allowed[name]
	}
	clean := filepath.Clean(name)
	for _, dir := range e.opts.AllowedDirs {
		rel, err := filepath.Rel(filepath.Clean(dir), clean)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opts.Timeout)
}

func (e *Executor) wrap(ctx context.Context, name string, args []string, stderr string, err error) error {
	ce := &CommandError{Name: name, Args: args, Stderr: stderr, ExitCode: -1, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ce.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		ce.Err = ctxErr
	}
	e.log.Warn().Str("cmd", name).Int("exit", ce.ExitCode).Str("stderr", lastLine(stderr)).Msg("command failed")
	return ce
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
