package workspace

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace(t *testing.T) {
	fs := afero.NewMemMapFs()

	w1, err := New(fs, "bandage_test", []string{"old", "patch/add"}, BaseDir("/scratch"))
	require.NoError(t, err)
	w2, err := New(fs, "bandage_test", nil, BaseDir("/scratch"))
	require.NoError(t, err)
	assert.NotEqual(t, w1.Root(), w2.Root(), "concurrent sessions must not collide")
	assert.Equal(t, "/scratch", filepath.Dir(w1.Root()))

	isDir, err := afero.DirExists(fs, w1.Path("patch", "add"))
	require.NoError(t, err)
	assert.True(t, isDir)
	assert.Equal(t, fs, w1.Fs())

	require.NoError(t, afero.WriteFile(fs, w1.Path("old", "file"), []byte("x"), 0600))
	require.NoError(t, w1.Close())

	exists, err := afero.Exists(fs, w1.Root())
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(fs, w2.Root())
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, w2.Close())
}
