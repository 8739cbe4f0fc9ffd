package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nace/udevbackup/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T) *testutil.DeviceTree {
	tree := testutil.NewDeviceTree(t)
	for _, name := range []string{"raw", "luks_1", "luks_2", "luks_3"} {
		tree.Add(t, name)
	}
	return tree
}

func TestResolveAliases(t *testing.T) {
	tree := newTree(t)

	aliases, err := ResolveAliases(tree.Root)
	require.NoError(t, err)

	expected := AliasMap{
		tree.DevicePath("raw"):    testutil.UUIDRawPartition,
		tree.DevicePath("luks_1"): testutil.UUIDLuks1Partition,
		tree.DevicePath("luks_2"): testutil.UUIDLuks2Partition,
		tree.DevicePath("luks_3"): testutil.UUIDLuks3Partition,

		"PARTLABEL=data":      testutil.UUIDLuks2Partition,
		"PARTLABEL=other":     testutil.UUIDLuks3Partition,
		"PARTLABEL=primary":   testutil.UUIDRawPartition,
		"PARTLABEL=secondary": testutil.UUIDLuks1Partition,

		"PARTUUID=628ab6f7-b7b4-4702-9f7f-c264d7bfa6ca": testutil.UUIDLuks3Partition,
		"PARTUUID=7a404841-844a-4a06-85dc-e7eea8e9aaf4": testutil.UUIDLuks2Partition,
		"PARTUUID=f86f6365-65b2-4d3b-99b9-55e50e6a544a": testutil.UUIDLuks1Partition,
		"PARTUUID=fd03e6cd-39b7-4a8d-8f1a-efb34c8238df": testutil.UUIDRawPartition,

		"UUID=" + testutil.UUIDLuks2Partition: testutil.UUIDLuks2Partition,
		"UUID=" + testutil.UUIDLuks3Partition: testutil.UUIDLuks3Partition,
		"UUID=" + testutil.UUIDLuks1Partition: testutil.UUIDLuks1Partition,
		"UUID=" + testutil.UUIDRawPartition:   testutil.UUIDRawPartition,
	}
	assert.Equal(t, expected, aliases)
}

func TestResolveAliasesSkipsUnknownTargets(t *testing.T) {
	tree := newTree(t)

	// partition label pointing at a device without a filesystem UUID
	orphan := filepath.Join(tree.Root, "sde1")
	require.NoError(t, os.WriteFile(orphan, nil, 0644))
	require.NoError(t, os.Symlink("../../sde1", filepath.Join(tree.Root, "disk", "by-partlabel", "orphan")))
	// dangling link
	require.NoError(t, os.Symlink("../../nothing", filepath.Join(tree.Root, "disk", "by-partuuid", "dangling")))

	aliases, err := ResolveAliases(tree.Root)
	require.NoError(t, err)
	assert.NotContains(t, aliases, "PARTLABEL=orphan")
	assert.NotContains(t, aliases, "PARTUUID=dangling")
	assert.Len(t, aliases, 16)
}

func TestResolveAliasesMissingSubdirectories(t *testing.T) {
	tree := testutil.NewDeviceTree(t)

	aliases, err := ResolveAliases(tree.Root)
	require.NoError(t, err)
	assert.Empty(t, aliases)
}

func TestResolveAliasesMissingRoot(t *testing.T) {
	_, err := ResolveAliases(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	var resErr *ResolutionError
	assert.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveAliasesDecodesEscapedLabels(t *testing.T) {
	tree := testutil.NewDeviceTree(t)
	tree.Add(t, "raw")
	require.NoError(t, os.Symlink("../../sda1", filepath.Join(tree.Root, "disk", "by-partlabel", `EFI\x20System`)))

	aliases, err := ResolveAliases(tree.Root)
	require.NoError(t, err)
	assert.Equal(t, testutil.UUIDRawPartition, aliases["PARTLABEL=EFI System"])
}

func TestByUUIDPath(t *testing.T) {
	assert.Equal(t, "/dev/disk/by-uuid/abcd", ByUUIDPath("/dev", "abcd"))
}
