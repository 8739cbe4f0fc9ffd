package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMounts(t *testing.T) {
	content := `proc /proc proc rw,nosuid 0 0
/dev/sda1 /tmp/udevbackup/primary ext4 rw,noatime 0 0
/dev/mapper/dm-1 /mnt/with\040space xfs ro 0 0
broken
`
	mounts := ParseMounts(content)
	require.Len(t, mounts, 3)

	entry, ok := mounts["/tmp/udevbackup/primary"]
	require.True(t, ok)
	assert.Equal(t, "/dev/sda1", entry.Device)
	assert.Equal(t, "ext4", entry.Filesystem)
	assert.Equal(t, "rw,noatime", entry.Options)

	entry, ok = mounts["/mnt/with space"]
	require.True(t, ok)
	assert.Equal(t, "/dev/mapper/dm-1", entry.Device)
}
