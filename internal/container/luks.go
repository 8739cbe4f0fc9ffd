package container

import (
	"context"

	"github.com/nace/udevbackup/internal/system"
)

// Tools used to unlock and lock crypttab containers
const (
	UnlockTool = "cryptdisks_start"
	LockTool   = "cryptsetup"
)

// LUKSManager handles LUKS operations for containers listed in crypttab
type LUKSManager struct {
	runner system.Runner
}

// NewLUKSManager creates a new LUKS manager
func NewLUKSManager(runner system.Runner) *LUKSManager {
	return &LUKSManager{
		runner: runner,
	}
}

// Open asks the device manager to unlock the crypttab entry mapperName.
// The mapped device appears asynchronously after the command returns.
func (m *LUKSManager) Open(ctx context.Context, mapperName string) system.Outcome {
	return m.runner.Run(ctx, system.Command{
		Argv: []string{UnlockTool, mapperName},
	})
}

// Close closes a LUKS container
func (m *LUKSManager) Close(ctx context.Context, mapperName string) system.Outcome {
	return m.runner.Run(ctx, system.Command{
		Argv: []string{LockTool, "luksClose", mapperName},
	})
}
