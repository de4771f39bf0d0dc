package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	happyPath = "happy path"
	workDir   = "/work"
)

// tree describes the content of a release tree: slash-separated paths to file content.
// Paths with a trailing slash are empty directories.
type tree map[string]string

func writeTree(t testing.TB, fs afero.Fs, root string, content tree) {
	require.NoError(t, fs.MkdirAll(root, 0755))
	for pth, data := range content {
		local := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(pth, "/")))
		if strings.HasSuffix(pth, "/") {
			require.NoError(t, fs.MkdirAll(local, 0755))
			continue
		}
		require.NoError(t, fs.MkdirAll(filepath.Dir(local), 0755))
		require.NoError(t, afero.WriteFile(fs, local, []byte(data), 0644))
	}
}

// readTree is the reverse of writeTree
func readTree(t testing.TB, fs afero.Fs, root string) tree {
	content := make(tree)
	err := afero.Walk(fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, pth)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			empty, err := afero.IsEmpty(fs, pth)
			if err != nil {
				return err
			}
			if empty {
				content[rel+"/"] = ""
			}
			return nil
		}
		data, err := afero.ReadFile(fs, pth)
		if err != nil {
			return err
		}
		content[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return content
}

func assertWorkspaceReleased(t testing.TB, fs afero.Fs) {
	entries, err := afero.ReadDir(fs, workDir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	require.Empty(t, entries, "session workspaces should be removed")
}

func testFs(t testing.TB) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(workDir, 0700))
	return fs
}
