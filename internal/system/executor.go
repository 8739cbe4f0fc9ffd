package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// OutcomeKind classifies how an external command ended
type OutcomeKind int

const (
	// Success means the command ran and exited with status 0
	Success OutcomeKind = iota
	// ToolMissing means the executable could not be found
	ToolMissing
	// NonZeroExit means the command ran and exited with a non-zero status
	NonZeroExit
	// PermissionDenied means the executable or its working directory was not accessible
	PermissionDenied
	// StartFailed covers every other reason the process could not be started
	StartFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case ToolMissing:
		return "tool missing"
	case NonZeroExit:
		return "non-zero exit"
	case PermissionDenied:
		return "permission denied"
	default:
		return "start failed"
	}
}

// Outcome is the result of running an external command. Callers branch on
// Kind instead of inspecting error types.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Err      error
	Stderr   string
}

// OK reports whether the command succeeded
func (o Outcome) OK() bool {
	return o.Kind == Success
}

func (o Outcome) String() string {
	switch o.Kind {
	case Success:
		return "success"
	case NonZeroExit:
		if o.Stderr != "" {
			return fmt.Sprintf("exit status %d: %s", o.ExitCode, o.Stderr)
		}
		return fmt.Sprintf("exit status %d", o.ExitCode)
	default:
		if o.Err != nil {
			return fmt.Sprintf("%s: %v", o.Kind, o.Err)
		}
		return o.Kind.String()
	}
}

// Command describes one external process invocation
type Command struct {
	Argv   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Credential, when set, runs the process under that numeric identity
	Credential *Identity
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Runner runs external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) Outcome
}

// Executor handles execution of external commands
type Executor struct {
	debug bool
}

// NewExecutor creates a new executor
func NewExecutor(debug bool) *Executor {
	return &Executor{
		debug: debug,
	}
}

// Run executes a command and blocks until it exits
func (e *Executor) Run(ctx context.Context, c Command) Outcome {
	if len(c.Argv) == 0 {
		return Outcome{Kind: StartFailed, Err: errors.New("empty command")}
	}

	path, err := exec.LookPath(c.Argv[0])
	if err != nil {
		return classify(err, "")
	}

	cmd := exec.CommandContext(ctx, path, c.Argv[1:]...)
	cmd.Args[0] = c.Argv[0]
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout

	var stderr bytes.Buffer
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	if c.Credential != nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Credential: &syscall.Credential{
				Uid: c.Credential.UID,
				Gid: c.Credential.GID,
			},
		}
	}

	if e.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] Executing: %s\n", c)
	}

	return classify(cmd.Run(), strings.TrimSpace(stderr.String()))
}

func classify(err error, stderr string) Outcome {
	if err == nil {
		return Outcome{Kind: Success}
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return Outcome{Kind: NonZeroExit, ExitCode: exitErr.ExitCode(), Err: err, Stderr: stderr}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return Outcome{Kind: ToolMissing, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return Outcome{Kind: PermissionDenied, Err: err}
	default:
		return Outcome{Kind: StartFailed, Err: err}
	}
}

// CommandExists checks if a command is available in PATH
func (e *Executor) CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// MissingCommands returns the subset of deps that is not available in PATH
func (e *Executor) MissingCommands(deps []string) []string {
	var missing []string
	for _, dep := range deps {
		if !e.CommandExists(dep) {
			missing = append(missing, dep)
		}
	}
	return missing
}
