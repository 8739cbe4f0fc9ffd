// Package testutil provides fixtures shared by package tests: a fake
// device-naming tree and recording fakes for the system capabilities.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Filesystem UUIDs used across tests
const (
	UUIDLuksedPartition = "0e601e2a-3504-4890-bc21-3f4b46aef7cf"
	UUIDRawPartition    = "8e00b174-2d2e-4190-8b81-0fc264ad3ff7"
	UUIDLuks1Partition  = "6162f76f-e228-4aed-8e86-b63840137255"
	UUIDLuks2Partition  = "07858aaf-d564-4123-b90c-19059ba47da8"
	UUIDLuks3Partition  = "3c50f3a4-82c6-4de6-875d-f8079b3f12ca"
)

// Partition describes one fake block device and its aliases
type Partition struct {
	Device    string
	PartLabel string
	PartUUID  string
	UUID      string
}

// Partitions known to DeviceTree
var Partitions = map[string]Partition{
	"raw": {
		Device:    "sda1",
		PartLabel: "primary",
		PartUUID:  "fd03e6cd-39b7-4a8d-8f1a-efb34c8238df",
		UUID:      UUIDRawPartition,
	},
	"luksed": {
		Device:    "dm-0",
		PartLabel: "LUKS partition",
		PartUUID:  "9850b6b3-28fa-46d3-8722-c7f4a5c9c330",
		UUID:      UUIDLuksedPartition,
	},
	"luks_1": {
		Device:    "sdb1",
		PartLabel: "secondary",
		PartUUID:  "f86f6365-65b2-4d3b-99b9-55e50e6a544a",
		UUID:      UUIDLuks1Partition,
	},
	"luks_2": {
		Device:    "sdc1",
		PartLabel: "data",
		PartUUID:  "7a404841-844a-4a06-85dc-e7eea8e9aaf4",
		UUID:      UUIDLuks2Partition,
	},
	"luks_3": {
		Device:    "sdd1",
		PartLabel: "other",
		PartUUID:  "628ab6f7-b7b4-4702-9f7f-c264d7bfa6ca",
		UUID:      UUIDLuks3Partition,
	},
}

// CrypttabContent maps luks_1 by UUID and luks_2 by PARTUUID
const CrypttabContent = `# <target name>	<source device>		<key file>	<options>
dm-0 UUID=6162f76f-e228-4aed-8e86-b63840137255 /etc/luks-keys/6162f76f.key luks
dm-1 PARTUUID=7a404841-844a-4a06-85dc-e7eea8e9aaf4 /etc/luks-keys/7a404841.key luks,noauto
`

// CrypttabWithMalformedLine starts with a line missing fields
const CrypttabWithMalformedLine = `# <target name>	<source device>		<key file>	<options>
dm-45 invalid
dm-0 UUID=6162f76f-e228-4aed-8e86-b63840137255 /etc/luks-keys/6162f76f.key luks
dm-1 PARTUUID=7a404841-844a-4a06-85dc-e7eea8e9aaf4 /etc/luks-keys/7a404841.key luks,noauto
dm-2 UUID=3c50f3a4-82c6-4de6-875d-f8079b3f12ca /etc/luks-keys/628ab6f7.key luks
`

// DeviceTree is a fake /dev rooted in a temporary directory
type DeviceTree struct {
	Root string
}

// NewDeviceTree creates an empty tree. Root is symlink-free so that
// resolved link targets compare equal to paths built from it.
func NewDeviceTree(t testing.TB) *DeviceTree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolve temp dir: %v", err)
	}
	return &DeviceTree{Root: root}
}

// DevicePath returns the raw device path of a known partition
func (d *DeviceTree) DevicePath(name string) string {
	return filepath.Join(d.Root, Partitions[name].Device)
}

// Add creates the raw device node and its by-uuid, by-partuuid and
// by-partlabel links, each relative like udev creates them.
func (d *DeviceTree) Add(t testing.TB, name string) {
	t.Helper()
	if err := d.AddPartition(Partitions[name]); err != nil {
		t.Fatalf("add partition %s: %v", name, err)
	}
}

// AddPartition is Add for arbitrary partitions; safe to call from fakes.
func (d *DeviceTree) AddPartition(p Partition) error {
	devicePath := filepath.Join(d.Root, p.Device)
	f, err := os.Create(devicePath)
	if err != nil {
		return err
	}
	f.Close()

	for kind, linkName := range map[string]string{
		"by-uuid":      p.UUID,
		"by-partuuid":  p.PartUUID,
		"by-partlabel": p.PartLabel,
	} {
		parent := filepath.Join(d.Root, "disk", kind)
		if err := os.MkdirAll(parent, 0755); err != nil {
			return err
		}
		rel, err := filepath.Rel(parent, devicePath)
		if err != nil {
			return err
		}
		if err := os.Symlink(rel, filepath.Join(parent, linkName)); err != nil && !os.IsExist(err) {
			return err
		}
	}
	return nil
}
