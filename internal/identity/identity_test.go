// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceSecret_TrimsTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine-id")
	require.NoError(t, os.WriteFile(path, []byte("abc123\n"), 0o640))

	orig := machineIDPath
	machineIDPath = path
	defer func() { machineIDPath = orig }()

	secret, err := DeviceSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("abc123"), secret)
}

func TestDeviceSecret_EmptyFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine-id")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o640))

	orig := machineIDPath
	machineIDPath = path
	defer func() { machineIDPath = orig }()

	_, err := DeviceSecret()
	require.Error(t, err)
}

func TestDeviceSecret_MissingFileIsFatal(t *testing.T) {
	orig := machineIDPath
	machineIDPath = filepath.Join(t.TempDir(), "does-not-exist")
	defer func() { machineIDPath = orig }()

	_, err := DeviceSecret()
	require.Error(t, err)
}

func TestDeviceID_ReturnsNonEmptyHostname(t *testing.T) {
	id, err := DeviceID()
	require.NoError(t, err)
	require.NotEmpty(t, id)
}
