package system

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupStackRunsInReverseOrder(t *testing.T) {
	var order []string
	stack := NewCleanupStack(nil)
	stack.Add("close", func() error { order = append(order, "close"); return nil })
	stack.Add("unmount", func() error { order = append(order, "unmount"); return nil })

	require.NoError(t, stack.Execute())
	assert.Equal(t, []string{"unmount", "close"}, order)
	assert.Equal(t, 0, stack.Len())
}

func TestCleanupStackContinuesAfterFailure(t *testing.T) {
	var order []string
	var failed []string
	stack := NewCleanupStack(func(name string, err error) { failed = append(failed, name) })
	stack.Add("close", func() error { order = append(order, "close"); return nil })
	stack.Add("unmount", func() error { order = append(order, "unmount"); return errors.New("busy") })

	err := stack.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmount: busy")
	assert.Equal(t, []string{"unmount", "close"}, order)
	assert.Equal(t, []string{"unmount"}, failed)
}
