package tracker

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatus(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/u/.bashrc", []byte("X"), 0o644))

	entry := Entry{Path: "/home/u/.bashrc", Fingerprint: Fingerprint([]byte("X"))}

	st, err := ComputeStatus(fs, entry)
	require.NoError(t, err)
	assert.Equal(t, StatusClean, st)

	require.NoError(t, afero.WriteFile(fs, "/home/u/.bashrc", []byte("Y"), 0o644))
	st, err = ComputeStatus(fs, entry)
	require.NoError(t, err)
	assert.Equal(t, StatusDirty, st)

	require.NoError(t, fs.Remove("/home/u/.bashrc"))
	st, err = ComputeStatus(fs, entry)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, st)
}

func TestComputeStatus_DirectoryAtPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/u/.bashrc", 0o755))

	entry := Entry{Path: "/home/u/.bashrc", Fingerprint: Fingerprint([]byte("X"))}
	st, err := ComputeStatus(fs, entry)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, st)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "clean", StatusClean.String())
	assert.Equal(t, "dirty", StatusDirty.String())
	assert.Equal(t, "missing", StatusMissing.String())
	assert.Equal(t, "deleted", StatusDeleted.String())
}
