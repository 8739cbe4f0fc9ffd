package container

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/nace/udevbackup/internal/system"
)

// MountManager handles filesystem mount operations
type MountManager struct {
	runner system.Runner
}

// NewMountManager creates a new mount manager
func NewMountManager(runner system.Runner) *MountManager {
	return &MountManager{
		runner: runner,
	}
}

// MountArgs returns the mount argv for device at mountPoint; options are
// joined with commas into a single -o flag.
func MountArgs(device, mountPoint string, options []string) []string {
	args := []string{"mount"}
	if len(options) > 0 {
		args = append(args, "-o", strings.Join(options, ","))
	}
	return append(args, device, mountPoint)
}

// Mount mounts a device to a mount point, creating the mount point
func (m *MountManager) Mount(ctx context.Context, device, mountPoint string, options []string) system.Outcome {
	if err := os.MkdirAll(mountPoint, 0755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return system.Outcome{Kind: system.PermissionDenied, Err: err}
		}
		return system.Outcome{Kind: system.StartFailed, Err: err}
	}

	return m.runner.Run(ctx, system.Command{
		Argv: MountArgs(device, mountPoint, options),
	})
}

// Unmount unmounts a mount point
func (m *MountManager) Unmount(ctx context.Context, mountPoint string) system.Outcome {
	return m.runner.Run(ctx, system.Command{
		Argv: []string{"umount", mountPoint},
	})
}
