package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nace/udevbackup/internal/device"
	"github.com/nace/udevbackup/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRules(t *testing.T) *RuleSet {
	t.Helper()
	rules := NewRuleSet()
	primary, err := NewRule("primary", RuleSpec{FSUUID: testutil.UUIDRawPartition, Script: "echo test1"}, "/tmp")
	require.NoError(t, err)
	data, err := NewRule("data", RuleSpec{
		FSUUID:   testutil.UUIDLuksedPartition,
		LUKSUUID: testutil.UUIDLuks2Partition,
		Script:   "echo test2",
		User:     "backupuser",
	}, "/tmp")
	require.NoError(t, err)
	require.NoError(t, rules.Register(primary))
	require.NoError(t, rules.Register(data))
	return rules
}

func TestRuleSetLookup(t *testing.T) {
	rules := newTestRules(t)

	r, ok := rules.Get(testutil.UUIDRawPartition)
	require.True(t, ok)
	assert.Equal(t, "primary", r.Name)
	assert.False(t, r.Encrypted())

	_, ok = rules.Get(testutil.UUIDLuks2Partition)
	assert.False(t, ok)

	r, ok = rules.FindByLUKSUUID(testutil.UUIDLuks2Partition)
	require.True(t, ok)
	assert.Equal(t, "data", r.Name)
	assert.True(t, r.Encrypted())

	_, ok = rules.FindByLUKSUUID("")
	assert.False(t, ok)
}

func TestBindCryptoIsIdempotent(t *testing.T) {
	rules := newTestRules(t)
	emap := device.EncryptionMap{
		testutil.UUIDLuks1Partition: "dm-0",
		testutil.UUIDLuks2Partition: "dm-1",
	}

	rules.BindCrypto(emap)
	first := make(map[string]string)
	for _, r := range rules.All() {
		first[r.Name] = r.LUKSName
	}

	rules.BindCrypto(emap)
	for _, r := range rules.All() {
		assert.Equal(t, first[r.Name], r.LUKSName)
	}
	assert.Equal(t, map[string]string{"primary": "", "data": "dm-1"}, first)
}

func TestBindCryptoLeavesUnknownContainersUnset(t *testing.T) {
	rules := newTestRules(t)
	rules.BindCrypto(device.EncryptionMap{testutil.UUIDLuks1Partition: "dm-0"})

	r, _ := rules.FindByLUKSUUID(testutil.UUIDLuks2Partition)
	assert.Empty(t, r.LUKSName)
}

func TestIdentifyCryptoDevices(t *testing.T) {
	tree := testutil.NewDeviceTree(t)
	for _, name := range []string{"raw", "luks_1", "luks_2", "luks_3"} {
		tree.Add(t, name)
	}
	crypttab := filepath.Join(tree.Root, "crypttab")
	require.NoError(t, os.WriteFile(crypttab, []byte(testutil.CrypttabContent), 0644))

	cfg := Default()
	cfg.DevicesRoot = tree.Root
	cfg.Crypttab = crypttab

	rules := newTestRules(t)
	require.NoError(t, rules.IdentifyCryptoDevices(cfg))

	r, _ := rules.FindByLUKSUUID(testutil.UUIDLuks2Partition)
	assert.Equal(t, "dm-1", r.LUKSName)
}

func TestIdentifyCryptoDevicesUnreadableTree(t *testing.T) {
	cfg := Default()
	cfg.DevicesRoot = filepath.Join(t.TempDir(), "missing")

	err := newTestRules(t).IdentifyCryptoDevices(cfg)
	var resErr *device.ResolutionError
	assert.ErrorAs(t, err, &resErr)
}

func TestNewRuleRejectsPathNames(t *testing.T) {
	_, err := NewRule("../etc", RuleSpec{FSUUID: "a", Script: "true"}, "/tmp")
	assert.Error(t, err)
}
