package container

import (
	"errors"
	"io/fs"
	"os"

	"github.com/nace/udevbackup/internal/config"
	"github.com/nace/udevbackup/internal/device"
	"github.com/nace/udevbackup/internal/system"
)

// DefaultMountsPath is the kernel mount table
const DefaultMountsPath = "/proc/mounts"

// Discovery reports the current state of configured devices by querying
// the device tree and the mount table
type Discovery struct {
	devicesRoot string
	mountsPath  string
}

// NewDiscovery creates a new discovery instance
func NewDiscovery(devicesRoot, mountsPath string) *Discovery {
	return &Discovery{
		devicesRoot: devicesRoot,
		mountsPath:  mountsPath,
	}
}

// Status returns the state of each rule's device, in rule order
func (d *Discovery) Status(rules []*config.Rule) ([]DeviceStatus, error) {
	aliases, err := device.ResolveAliases(d.devicesRoot)
	if err != nil {
		return nil, err
	}

	mounts, err := d.getMounts()
	if err != nil {
		return nil, err
	}

	statuses := make([]DeviceStatus, 0, len(rules))
	for _, r := range rules {
		status := DeviceStatus{Rule: r.Name}

		_, fsVisible := aliases[device.PrefixUUID+r.FSUUID]
		if r.Encrypted() {
			_, status.Present = aliases[device.PrefixUUID+r.LUKSUUID]
			status.Unlocked = fsVisible
		} else {
			status.Present = fsVisible
		}

		if entry, ok := mounts[r.MountPoint]; ok {
			status.Mounted = true
			status.MountPoint = entry.MountPoint
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

// getMounts parses the mount table; a missing table means nothing is mounted
func (d *Discovery) getMounts() (map[string]system.MountEntry, error) {
	data, err := os.ReadFile(d.mountsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]system.MountEntry{}, nil
		}
		return nil, err
	}
	return system.ParseMounts(string(data)), nil
}
