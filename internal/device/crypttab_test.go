package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nace/udevbackup/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMappingTable(t *testing.T) {
	tree := newTree(t)
	aliases, err := ResolveAliases(tree.Root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		want    EncryptionMap
	}{
		{
			name:    "uuid and partuuid sources",
			content: testutil.CrypttabContent,
			want: EncryptionMap{
				testutil.UUIDLuks1Partition: "dm-0",
				testutil.UUIDLuks2Partition: "dm-1",
			},
		},
		{
			name:    "malformed line is skipped",
			content: testutil.CrypttabWithMalformedLine,
			want: EncryptionMap{
				testutil.UUIDLuks1Partition: "dm-0",
				testutil.UUIDLuks2Partition: "dm-1",
				testutil.UUIDLuks3Partition: "dm-2",
			},
		},
		{
			name:    "raw path and partlabel",
			content: "dm-a " + tree.DevicePath("luks_3") + " none luks\ndm-b PARTLABEL=secondary none luks\n",
			want: EncryptionMap{
				testutil.UUIDLuks3Partition: "dm-a",
				testutil.UUIDLuks1Partition: "dm-b",
			},
		},
		{
			name:    "unresolvable sources kept",
			content: "crypt1 UUID=deadbeef none luks\ncrypt2 /dev/vdz9 none luks\n",
			want: EncryptionMap{
				"deadbeef":  "crypt1",
				"/dev/vdz9": "crypt2",
			},
		},
		{
			name:    "later duplicate wins",
			content: "first UUID=deadbeef none luks\n\n   \nsecond UUID=deadbeef none luks\n",
			want:    EncryptionMap{"deadbeef": "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMappingTable(tt.content, aliases))
		})
	}
}

func TestParseMappingTableResolvesPartUUID(t *testing.T) {
	aliases := AliasMap{"PARTUUID=X": "U"}
	got := ParseMappingTable("name PARTUUID=X none luks\n", aliases)
	assert.Equal(t, EncryptionMap{"U": "name"}, got)
}

func TestReadMappingTable(t *testing.T) {
	dir := t.TempDir()

	emap, err := ReadMappingTable(filepath.Join(dir, "missing"), AliasMap{})
	require.NoError(t, err)
	assert.Empty(t, emap)

	path := filepath.Join(dir, "crypttab")
	require.NoError(t, os.WriteFile(path, []byte("c1 UUID=abcd none luks\n"), 0644))
	emap, err = ReadMappingTable(path, AliasMap{})
	require.NoError(t, err)
	assert.Equal(t, EncryptionMap{"abcd": "c1"}, emap)
}
