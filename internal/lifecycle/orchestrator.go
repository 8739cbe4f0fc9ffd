// Package lifecycle drives one device event through
// unlock, mount, scripts, unmount and lock.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nace/udevbackup/internal/config"
	"github.com/nace/udevbackup/internal/container"
	"github.com/nace/udevbackup/internal/device"
	"github.com/nace/udevbackup/internal/system"
	"github.com/nace/udevbackup/internal/ui"
	"github.com/spf13/afero"
)

var (
	// ErrNoMatchingRule means the device is not configured; it is not a failure
	ErrNoMatchingRule = errors.New("no rule matches this device")
	// ErrUnlockTimeout means the unlocked partition never appeared
	ErrUnlockTimeout = errors.New("unlocked device did not appear in time")
	// ErrToolFailure means an external command was missing or failed
	ErrToolFailure = errors.New("external command failed")
	// ErrPrivilegeTransition means the script account could not be prepared
	ErrPrivilegeTransition = errors.New("unable to switch to the script user")
)

// Step names a lifecycle stage
type Step string

const (
	StepMatch      Step = "match"
	StepLock       Step = "lock"
	StepUnlock     Step = "unlock"
	StepMount      Step = "mount"
	StepPrivileges Step = "privileges"
	StepPreScript  Step = "pre-script"
	StepScript     Step = "script"
	StepPostScript Step = "post-script"
	StepUnmount    Step = "unmount"
	StepLockClose  Step = "lock-close"
)

// Result is the outcome of Run. Step and Err describe the first failure.
type Result struct {
	OK   bool
	Rule string
	Step Step
	Err  error
}

// Notifier receives one summary per run: NotifyFailure for failed runs,
// NotifySuccess otherwise
type Notifier interface {
	NotifyFailure(ctx context.Context, subject, detail string)
	NotifySuccess(ctx context.Context, subject, detail string)
}

type nopNotifier struct{}

func (nopNotifier) NotifyFailure(context.Context, string, string) {}

func (nopNotifier) NotifySuccess(context.Context, string, string) {}

// Orchestrator runs the rule matching a device event
type Orchestrator struct {
	cfg    *config.Config
	rules  *config.RuleSet
	logger *ui.Logger

	runner     system.Runner
	identities system.IdentityResolver
	owners     system.OwnershipSetter
	locker     system.Locker
	clock      system.Clock
	notifier   Notifier
	fs         afero.Fs
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRunner sets the process runner
func WithRunner(r system.Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithIdentityResolver sets the account lookup
func WithIdentityResolver(r system.IdentityResolver) Option {
	return func(o *Orchestrator) { o.identities = r }
}

// WithOwnershipSetter sets the chown implementation
func WithOwnershipSetter(s system.OwnershipSetter) Option {
	return func(o *Orchestrator) { o.owners = s }
}

// WithLocker sets the exclusive lock implementation
func WithLocker(l system.Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// WithClock sets the clock used by the unlock wait
func WithClock(c system.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithNotifier sets the failure notifier
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithFs sets the filesystem holding the capture files
func WithFs(fs afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fs }
}

// New creates an orchestrator backed by the real system unless overridden
func New(cfg *config.Config, rules *config.RuleSet, logger *ui.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		rules:      rules,
		logger:     logger,
		runner:     system.NewExecutor(false),
		identities: system.OSIdentities{},
		owners:     system.OSOwnership{},
		locker:     system.FileLock{},
		clock:      system.RealClock{},
		notifier:   nopNotifier{},
		fs:         afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Match returns the rule for an event UUID and whether its container must
// be unlocked first
func (o *Orchestrator) Match(target string) (*config.Rule, bool, bool) {
	if r, ok := o.rules.Get(target); ok {
		return r, false, true
	}
	if r, ok := o.rules.FindByLUKSUUID(target); ok {
		return r, true, true
	}
	return nil, false, false
}

// Run handles the connection of the device identified by target, a
// filesystem UUID. Cleanup steps always run once their matching setup step
// succeeded; the first failure decides the result.
func (o *Orchestrator) Run(ctx context.Context, target string) Result {
	rule, needsUnlock, ok := o.Match(target)
	if !ok {
		o.logger.Debug("No rule for device %s", target)
		return Result{Step: StepMatch, Err: ErrNoMatchingRule}
	}

	r := &run{
		Orchestrator: o,
		rule:         rule,
		target:       target,
		logger:       o.logger.With("run", uuid.NewString()).With("rule", rule.Name),
		luks:         container.NewLUKSManager(o.runner),
		mounts:       container.NewMountManager(o.runner),
	}
	return r.execute(ctx, needsUnlock)
}

// run holds the state of a single Run call
type run struct {
	*Orchestrator
	rule    *config.Rule
	target  string
	logger  *ui.Logger
	luks    *container.LUKSManager
	mounts  *container.MountManager
	cleanup *system.CleanupStack
}

func (r *run) execute(ctx context.Context, needsUnlock bool) Result {
	release, err := r.locker.Lock(r.cfg.LockFile)
	if err != nil {
		return r.fail(ctx, StepLock, err)
	}
	defer func() {
		if err := release(); err != nil {
			r.logger.Warning("Unable to release %s: %v", r.cfg.LockFile, err)
		}
	}()

	r.logger.Info("Device %s is connected.", r.target)

	r.cleanup = system.NewCleanupStack(func(name string, err error) {
		r.logger.Error("Cleanup step %s failed: %v", name, err)
	})

	step, err := r.setupAndRunScripts(ctx, needsUnlock)
	_ = r.cleanup.Execute()
	r.logger.Info("Device %s can be disconnected.", r.target)

	if err != nil {
		return r.fail(ctx, step, err)
	}

	r.logger.Success("Successful.")
	r.notifier.NotifySuccess(ctx, fmt.Sprintf("udevbackup: %s succeeded", r.rule.Name),
		fmt.Sprintf("Rule %s succeeded for device %s.", r.rule.Name, r.target))
	return Result{OK: true, Rule: r.rule.Name}
}

// setupAndRunScripts registers an undo step on the cleanup stack after each
// successful setup step
func (r *run) setupAndRunScripts(ctx context.Context, needsUnlock bool) (Step, error) {
	if needsUnlock {
		if err := r.unlock(ctx); err != nil {
			return StepUnlock, err
		}
	}

	if err := r.mount(ctx); err != nil {
		return StepMount, err
	}

	return r.runScripts(ctx)
}

func (r *run) unlock(ctx context.Context) error {
	if r.rule.LUKSName == "" {
		return fmt.Errorf("%w: container %s of rule %s has no entry in %s",
			ErrToolFailure, r.rule.LUKSUUID, r.rule.Name, r.cfg.Crypttab)
	}

	r.logger.Info("Unlocking %s...", r.rule.LUKSName)
	if outcome := r.luks.Open(ctx, r.rule.LUKSName); !outcome.OK() {
		return toolError(container.UnlockTool, outcome)
	}
	// the mapping may complete after a timeout, so close it in every case
	r.cleanup.Add(string(StepLockClose), func() error {
		r.logger.Info("Locking %s...", r.rule.LUKSName)
		if outcome := r.luks.Close(ctx, r.rule.LUKSName); !outcome.OK() {
			return toolError(container.LockTool, outcome)
		}
		return nil
	})

	return r.waitForDevice()
}

// waitForDevice polls the alias tree until the decrypted filesystem UUID
// shows up or the unlock timeout elapses
func (r *run) waitForDevice() error {
	alias := device.PrefixUUID + r.rule.FSUUID
	deadline := r.clock.Now().Add(r.cfg.UnlockTimeout)
	for {
		aliases, err := device.ResolveAliases(r.cfg.DevicesRoot)
		if err != nil {
			return err
		}
		if _, ok := aliases[alias]; ok {
			return nil
		}
		if !r.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: %s not visible after %s", ErrUnlockTimeout, r.rule.FSUUID, r.cfg.UnlockTimeout)
		}
		r.logger.Debug("Waiting for %s...", r.rule.FSUUID)
		r.clock.Sleep(r.cfg.UnlockPollInterval)
	}
}

func (r *run) mount(ctx context.Context) error {
	devicePath := device.ByUUIDPath(r.cfg.DevicesRoot, r.rule.FSUUID)
	r.logger.Info("Mounting %s on %s...", devicePath, r.rule.MountPoint)
	if outcome := r.mounts.Mount(ctx, devicePath, r.rule.MountPoint, r.rule.MountOptions); !outcome.OK() {
		return toolError("mount", outcome)
	}
	r.cleanup.Add(string(StepUnmount), func() error {
		r.logger.Info("Unmounting %s...", r.rule.MountPoint)
		if outcome := r.mounts.Unmount(ctx, r.rule.MountPoint); !outcome.OK() {
			return toolError("umount", outcome)
		}
		return nil
	})
	return nil
}

func (r *run) runScripts(ctx context.Context) (Step, error) {
	if err := r.fs.MkdirAll(filepath.Dir(r.rule.StdoutPath), 0755); err != nil {
		return StepPreScript, fmt.Errorf("failed to create %s: %w", filepath.Dir(r.rule.StdoutPath), err)
	}
	stdout, err := r.openCapture(r.rule.StdoutPath)
	if err != nil {
		return StepPreScript, err
	}
	defer stdout.Close()
	stderr, err := r.openCapture(r.rule.StderrPath)
	if err != nil {
		return StepPreScript, err
	}
	defer stderr.Close()

	var credential *system.Identity
	if r.rule.User != "" {
		id, err := r.prepareUser()
		if err != nil {
			return StepPrivileges, err
		}
		credential = &id
	}

	phases := []struct {
		step       Step
		script     string
		credential *system.Identity
	}{
		{StepPreScript, r.rule.PreScript, nil},
		{StepScript, r.rule.Script, credential},
		{StepPostScript, r.rule.PostScript, nil},
	}
	for _, phase := range phases {
		if phase.script == "" {
			continue
		}
		r.logger.Debug("Running %s of %s", phase.step, r.rule.Name)
		outcome := r.runner.Run(ctx, system.Command{
			Argv:       r.rule.Command,
			Dir:        r.rule.MountPoint,
			Stdin:      strings.NewReader(phase.script),
			Stdout:     stdout,
			Stderr:     stderr,
			Credential: phase.credential,
		})
		if !outcome.OK() {
			return phase.step, toolError(r.rule.Command[0], outcome)
		}
	}
	return "", nil
}

func (r *run) openCapture(path string) (afero.File, error) {
	f, err := r.fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// prepareUser resolves the script account and hands it the capture files
func (r *run) prepareUser() (system.Identity, error) {
	id, err := r.identities.LookupUser(r.rule.User)
	if err != nil {
		return system.Identity{}, fmt.Errorf("%w: %s: %v", ErrPrivilegeTransition, r.rule.User, err)
	}
	for _, path := range []string{r.rule.StdoutPath, r.rule.StderrPath} {
		if err := r.owners.Chown(path, id.UID, id.GID); err != nil {
			return system.Identity{}, fmt.Errorf("%w: %v", ErrPrivilegeTransition, err)
		}
	}
	return id, nil
}

func (r *run) fail(ctx context.Context, step Step, err error) Result {
	summary := fmt.Sprintf("Rule %s failed at %s for device %s: %v", r.rule.Name, step, r.target, err)
	r.logger.Error("%s", summary)
	r.notifier.NotifyFailure(ctx, fmt.Sprintf("udevbackup: %s failed", r.rule.Name), summary)
	return Result{Rule: r.rule.Name, Step: step, Err: err}
}

func toolError(tool string, outcome system.Outcome) error {
	return fmt.Errorf("%w: %s: %s", ErrToolFailure, tool, outcome)
}
