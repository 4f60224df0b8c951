// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTempHome points $HOME at a temp directory so PID file operations
// stay isolated from the real user state.
func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestStateDir_Creates(t *testing.T) {
	home := withTempHome(t)

	dir, err := StateDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".soul-agent"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPID_RoundTrip(t *testing.T) {
	withTempHome(t)

	pid, err := ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 0, pid, "no PID file yet")

	require.NoError(t, WritePID())

	pid, err = ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, RemovePID())
	pid, err = ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}

func TestRemovePID_Missing(t *testing.T) {
	withTempHome(t)
	assert.NoError(t, RemovePID())
}

func TestReadPID_Malformed(t *testing.T) {
	withTempHome(t)
	path, err := PIDPath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o600))

	_, err = ReadPID()
	assert.Error(t, err)
}

func TestAlive(t *testing.T) {
	assert.True(t, Alive(os.Getpid()), "current process is alive")
	assert.False(t, Alive(0))
	assert.False(t, Alive(-5))
}

func TestRunning_OwnProcess(t *testing.T) {
	withTempHome(t)
	require.NoError(t, WritePID())

	pid, err := Running()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestRunning_StalePIDRemoved(t *testing.T) {
	withTempHome(t)
	path, err := PIDPath()
	require.NoError(t, err)
	// pid beyond the default pid_max ceiling, guaranteed dead
	require.NoError(t, os.WriteFile(path, []byte("4194304"), 0o600))

	pid, err := Running()
	require.NoError(t, err)
	assert.Equal(t, 0, pid)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "stale PID file should be removed")
}
