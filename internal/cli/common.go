package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nace/udevbackup/internal/config"
	"github.com/nace/udevbackup/internal/container"
	"github.com/nace/udevbackup/internal/lifecycle"
	"github.com/nace/udevbackup/internal/notify"
	"github.com/nace/udevbackup/internal/system"
	"github.com/nace/udevbackup/internal/ui"
	"github.com/spf13/afero"
)

// Process exit codes
const (
	ExitSuccess   = 0
	ExitConfig    = 1
	ExitAtFailed  = 2
	ExitAtMissing = 3
	ExitRunFailed = 4
)

var errMissingUUID = errors.New("no filesystem uuid provided")

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitConfig
}

// GlobalContext holds shared resources for all commands
type GlobalContext struct {
	Fs         afero.Fs
	Executor   *system.Executor
	Runner     system.Runner
	Logger     *ui.Logger
	Transcript *ui.MemorySink
	Console    *ui.ConsoleSink
	Stdout     io.Writer

	// Program is the executable path written into the udev rule and the at job
	Program    string
	ConfigDir  string
	FSUUID     string
	MountsPath string

	Mailer              notify.Mailer
	OrchestratorOptions []lifecycle.Option

	closers []io.Closer
}

// NewGlobalContext creates a new global context writing to the process
// stdout/stderr
func NewGlobalContext(verbose, quiet, noColor, debug bool) *GlobalContext {
	executor := system.NewExecutor(debug)
	console := ui.NewConsoleSink(quiet, noColor)
	transcript := ui.NewMemorySink()

	program, err := os.Executable()
	if err != nil {
		program = os.Args[0]
	}

	return &GlobalContext{
		Fs:         afero.NewOsFs(),
		Executor:   executor,
		Runner:     executor,
		Logger:     ui.NewLogger(verbose, console, transcript),
		Transcript: transcript,
		Console:    console,
		Stdout:     os.Stdout,
		Program:    program,
		ConfigDir:  config.DefaultDir,
		FSUUID:     os.Getenv("ID_FS_UUID"),
		MountsPath: container.DefaultMountsPath,
	}
}

// LoadConfig reads the configuration directory and routes the logger to the
// sinks it enables. A load failure is reported as ExitConfig.
func (ctx *GlobalContext) LoadConfig() (*config.Config, *config.RuleSet, error) {
	cfg, rules, err := config.Load(ctx.Fs, ctx.ConfigDir)
	if err != nil {
		ctx.Logger.Error("Unable to load udevbackup configuration: %v", err)
		return nil, nil, &ExitError{Code: ExitConfig, Err: err}
	}
	if err := rules.IdentifyCryptoDevices(cfg); err != nil {
		ctx.Logger.Error("Unable to identify encrypted devices: %v", err)
		return nil, nil, &ExitError{Code: ExitConfig, Err: err}
	}

	sinks := []ui.Sink{ctx.Transcript}
	if cfg.UseStdout {
		sinks = append(sinks, ctx.Console)
	}
	if cfg.UseLogFile {
		fileSink, err := ui.NewFileSink(cfg.LogFile)
		if err != nil {
			ctx.Logger.Warning("Unable to open log file: %v", err)
		} else {
			sinks = append(sinks, fileSink)
			ctx.closers = append(ctx.closers, fileSink)
		}
	}
	ctx.Logger.SetSinks(sinks...)

	return cfg, rules, nil
}

// RequireFSUUID returns the device identifier or an ExitConfig error
func (ctx *GlobalContext) RequireFSUUID() (string, error) {
	if ctx.FSUUID == "" {
		ctx.Logger.Error("No filesystem uuid provided: use --fs-uuid or set the ID_FS_UUID environment variable")
		return "", &ExitError{Code: ExitConfig, Err: errMissingUUID}
	}
	return ctx.FSUUID, nil
}

// Close releases the log file
func (ctx *GlobalContext) Close() {
	for _, c := range ctx.closers {
		c.Close()
	}
	ctx.closers = nil
}
