package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nace/udevbackup/internal/system"
)

// RecordedCommand is one call seen by FakeRunner
type RecordedCommand struct {
	Argv       []string
	Dir        string
	Stdin      string
	Credential *system.Identity
}

// FakeRunner records commands instead of running them. Results are keyed
// by argv[0], ScriptResults by the text fed on stdin and take precedence.
// Hooks run before the result is returned.
type FakeRunner struct {
	mu            sync.Mutex
	Commands      []RecordedCommand
	Results       map[string]system.Outcome
	ScriptResults map[string]system.Outcome
	Hooks         map[string]func(cmd system.Command)
}

// NewFakeRunner creates a runner on which every command succeeds
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Results:       make(map[string]system.Outcome),
		ScriptResults: make(map[string]system.Outcome),
		Hooks:         make(map[string]func(cmd system.Command)),
	}
}

func (r *FakeRunner) Run(ctx context.Context, cmd system.Command) system.Outcome {
	rec := RecordedCommand{
		Argv:       append([]string(nil), cmd.Argv...),
		Dir:        cmd.Dir,
		Credential: cmd.Credential,
	}
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		rec.Stdin = string(data)
	}

	r.mu.Lock()
	r.Commands = append(r.Commands, rec)
	hook := r.Hooks[cmd.Argv[0]]
	result, ok := r.ScriptResults[rec.Stdin]
	if !ok || rec.Stdin == "" {
		result, ok = r.Results[cmd.Argv[0]]
	}
	r.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	if ok {
		return result
	}
	return system.Outcome{Kind: system.Success}
}

// Names returns argv[0] of every recorded command
func (r *FakeRunner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		names = append(names, c.Argv[0])
	}
	return names
}

// Argvs returns the full argv of every recorded command
func (r *FakeRunner) Argvs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	argvs := make([][]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		argvs = append(argvs, c.Argv)
	}
	return argvs
}

// FakeIdentities resolves a fixed set of accounts
type FakeIdentities map[string]system.Identity

func (f FakeIdentities) LookupUser(name string) (system.Identity, error) {
	id, ok := f[name]
	if !ok {
		return system.Identity{}, fmt.Errorf("user: unknown user %s", name)
	}
	return id, nil
}

// FakeOwnership records chown calls and fails for any uid in Deny
type FakeOwnership struct {
	Calls []string
	Deny  map[uint32]bool
}

func (f *FakeOwnership) Chown(path string, uid, gid uint32) error {
	if f.Deny[uid] {
		return fmt.Errorf("chown %s: operation not permitted", path)
	}
	f.Calls = append(f.Calls, fmt.Sprintf("%s:%d:%d", path, uid, gid))
	return nil
}

// FakeClock advances only when Sleep is called. OnSleep, if set, runs
// after each Sleep with the number of sleeps so far.
type FakeClock struct {
	Current time.Time
	Sleeps  int
	OnSleep func(n int)
}

// NewFakeClock starts at a fixed instant
func NewFakeClock() *FakeClock {
	return &FakeClock{Current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time { return c.Current }

func (c *FakeClock) Sleep(d time.Duration) {
	c.Sleeps++
	c.Current = c.Current.Add(d)
	if c.OnSleep != nil {
		c.OnSleep(c.Sleeps)
	}
}

// FakeLocker counts lock acquisitions and releases
type FakeLocker struct {
	Err      error
	Locked   int
	Released int
	Paths    []string
}

func (l *FakeLocker) Lock(path string) (func() error, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.Locked++
	l.Paths = append(l.Paths, path)
	return func() error {
		l.Released++
		return nil
	}, nil
}
