package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeCommandRegistered(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"upgrade", "--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Download and install the latest ecsgen release")
}

func TestRollbackCommandRegistered(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"rollback", "--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Restore the binary replaced by the last upgrade")
}

func TestRollbackFailsWithoutBackup(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"rollback"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backup found")
}
