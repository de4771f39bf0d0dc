package archive

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/src/NAME":                 "AppA",
		"/src/add/a/b/c/deep.txt":   "deep",
		"/src/add/with, comma [1]":  "odd name",
		"/src/replace/bin/tool.exe": "\x00\x01\x02binary",
	}
	for pth, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(pth), 0755))
		require.NoError(t, afero.WriteFile(fs, pth, []byte(content), 0644))
	}
	require.NoError(t, fs.MkdirAll("/src/add/empty", 0755))

	var buf bytes.Buffer
	require.NoError(t, Pack(fs, "/src", &buf))

	require.NoError(t, Unpack(fs, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "/dst"))
	for pth, content := range files {
		b, err := afero.ReadFile(fs, "/dst"+pth[len("/src"):])
		require.NoError(t, err)
		assert.Equal(t, content, string(b))
	}
	isDir, err := afero.DirExists(fs, "/dst/add/empty")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestUnpackRejectsEscapes(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	fs := afero.NewMemMapFs()
	err = Unpack(fs, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "/dst")
	require.Error(t, err)

	exists, _ := afero.Exists(fs, "/escape.txt")
	assert.False(t, exists)
}

func TestUnpackNotAnArchive(t *testing.T) {
	garbage := []byte("definitely not a zip")
	err := Unpack(afero.NewMemMapFs(), bytes.NewReader(garbage), int64(len(garbage)), "/dst")
	assert.Error(t, err)
}
