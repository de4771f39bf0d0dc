package core

import (
	"archive/zip"
	"bytes"
	"context"
	"io/ioutil"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oneconcern/bandage/internal/rand"
	"github.com/oneconcern/bandage/pkg/archive"
	"github.com/oneconcern/bandage/pkg/core/status"
	"github.com/oneconcern/bandage/pkg/errors"
	"github.com/oneconcern/bandage/pkg/model"
	storagestatus "github.com/oneconcern/bandage/pkg/storage/status"
)

func releaseOld() tree {
	return tree{
		"NAME":         "app",
		"VERSION":      "1.0",
		"bin/tool":     "tool v1",
		"lib/core.so":  "core",
		"lib/legacy/x": "legacy",
		"conf":         "conf as a file",
		"obsolete.txt": "bye",
	}
}

func releaseNew() tree {
	return tree{
		"NAME":          "app",
		"VERSION":       "2.0",
		"bin/tool":      "tool v2",
		"bin/helper":    "helper",
		"lib/core.so":   "core",
		"conf/main.yml": "conf as a directory",
		"plugins/a/b":   rand.LetterString(4096),
		"cache/":        "",
	}
}

// zipEntries lists the entries of a zip archive, with their content
func zipEntries(t testing.TB, fs afero.Fs, pth string) map[string]string {
	data, err := afero.ReadFile(fs, pth)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	entries := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rdr, err := f.Open()
		require.NoError(t, err)
		b, err := ioutil.ReadAll(rdr)
		require.NoError(t, err)
		_ = rdr.Close()
		entries[f.Name] = string(b)
	}
	return entries
}

func TestWeave(t *testing.T) {
	defer goleak.VerifyNone(t)
	fs := testFs(t)
	writeTree(t, fs, "/old", releaseOld())
	writeTree(t, fs, "/new", releaseNew())

	result, err := Weave(context.Background(), "/old", "/new", "/out/patch.zip", WithFs(fs), WorkDir(workDir))
	require.NoError(t, err)
	assertWorkspaceReleased(t, fs)

	assert.Equal(t, "app", result.Name)
	assert.Equal(t, model.Versions{From: "1.0", To: "2.0"}, result.Versions)
	assert.Equal(t, "/out/patch.zip", result.Output)
	assert.NotZero(t, result.Size)
	assert.Equal(t, DiffResult{
		Removed:   []string{"lib/legacy", "lib/legacy/x", "obsolete.txt"},
		Added:     []string{"bin/helper", "cache", "conf/main.yml", "plugins", "plugins/a", "plugins/a/b"},
		Unchanged: []string{"NAME", "lib/core.so"},
		Changed:   []string{"VERSION", "bin/tool", "conf"},
	}, result.Diff)

	entries := zipEntries(t, fs, "/out/patch.zip")
	assert.Equal(t, "app", entries[model.NameFile])
	assert.Equal(t, "1.0 -> 2.0", entries[model.VersionsFile])
	assert.Equal(t, "helper", entries["add/bin/helper"])
	assert.Contains(t, entries, "add/cache/")
	assert.Equal(t, "tool v2", entries["replace/bin/tool"])
	assert.Equal(t, "conf as a directory", entries["add/conf/main.yml"])
	assert.Contains(t, entries, "replace/conf/")
	assert.NotContains(t, entries, "replace/conf/main.yml")
	assert.Equal(t, "2.0", entries["replace/VERSION"])
	assert.NotContains(t, entries, "add/lib/core.so")

	manifest, err := model.UnmarshalManifest([]byte(entries[model.ManifestFile]))
	require.NoError(t, err)
	assert.Equal(t, result.Diff.Added, manifest.Add)
	assert.Equal(t, result.Diff.Removed, manifest.Remove)
	assert.Equal(t, result.Diff.Unchanged, manifest.Keep)
	assert.Equal(t, result.Diff.Changed, manifest.Replace)
	require.Len(t, manifest.Digests, 5)
	digest, err := model.Digest(bytes.NewReader([]byte(entries["add/plugins/a/b"])))
	require.NoError(t, err)
	assert.Equal(t, digest, manifest.Digests["add/plugins/a/b"])

	t.Run("existing output", func(t *testing.T) {
		_, err := Weave(context.Background(), "/old", "/new", "/out/patch.zip", WithFs(fs), WorkDir(workDir))
		require.Error(t, err)
		assert.True(t, errors.Is(err, storagestatus.ErrExists))

		_, err = Weave(context.Background(), "/missing", "/new", "/out/patch.zip", WithFs(fs), WorkDir(workDir))
		require.Error(t, err)
		assert.True(t, errors.Is(err, storagestatus.ErrExists), "the output is checked before releases are read")
		assertWorkspaceReleased(t, fs)

		_, err = Weave(context.Background(), "/old", "/new", "/out/patch.zip", WithFs(fs), WorkDir(workDir), Overwrite(true))
		require.NoError(t, err)
		assertWorkspaceReleased(t, fs)
	})
}

func TestWeaveDryRun(t *testing.T) {
	fs := testFs(t)
	writeTree(t, fs, "/old", releaseOld())
	writeTree(t, fs, "/new", releaseNew())

	result, err := Weave(context.Background(), "/old", "/new", "/out/patch.zip", WithFs(fs), WorkDir(workDir), DryRun(true))
	require.NoError(t, err)
	assert.Empty(t, result.Output)
	assert.Len(t, result.Diff.Changed, 3)

	found, err := afero.Exists(fs, "/out/patch.zip")
	require.NoError(t, err)
	assert.False(t, found)
	assertWorkspaceReleased(t, fs)
}

func TestWeaveFromArchives(t *testing.T) {
	fs := testFs(t)
	for pth, content := range map[string]tree{"/src/old": releaseOld(), "/src/new": releaseNew()} {
		writeTree(t, fs, pth, content)
		out, err := fs.Create(pth + ".zip")
		require.NoError(t, err)
		require.NoError(t, archive.Pack(fs, pth, out))
		require.NoError(t, out.Close())
	}

	fromArchives, err := Weave(context.Background(), "/src/old.zip", "/src/new.zip", "/out/archived.zip", WithFs(fs), WorkDir(workDir))
	require.NoError(t, err)
	fromTrees, err := Weave(context.Background(), "/src/old", "/src/new", "/out/trees.zip", WithFs(fs), WorkDir(workDir))
	require.NoError(t, err)
	assert.Equal(t, fromTrees.Diff, fromArchives.Diff)
	assert.Equal(t, fromTrees.Versions, fromArchives.Versions)
	assertWorkspaceReleased(t, fs)

	_, err = Weave(context.Background(), "/src/missing.zip", "/src/new.zip", "/out/missing.zip", WithFs(fs), WorkDir(workDir))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrReleaseNotFound))

	require.NoError(t, afero.WriteFile(fs, "/src/garbage.zip", []byte("not a zip"), 0644))
	_, err = Weave(context.Background(), "/src/garbage.zip", "/src/new.zip", "/out/garbage.zip", WithFs(fs), WorkDir(workDir))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrArchiveFormat))
	assertWorkspaceReleased(t, fs)
}

type weaveMetadataFixture struct {
	name             string
	old              tree
	new              tree
	opts             []Option
	wantError        error
	expectedName     string
	expectedVersions model.Versions
	expectNameHeader bool
}

func weaveMetadataTestCases() []weaveMetadataFixture {
	return []weaveMetadataFixture{
		{
			name:             happyPath,
			old:              tree{"NAME": "app", "VERSION": "1.0"},
			new:              tree{"NAME": "app", "VERSION": "1.1", "x": "x"},
			expectedName:     "app",
			expectedVersions: model.Versions{From: "1.0", To: "1.1"},
			expectNameHeader: true,
		},
		{
			name:      "name mismatch",
			old:       tree{"NAME": "AppA", "VERSION": "1.0"},
			new:       tree{"NAME": "AppB", "VERSION": "1.1"},
			wantError: status.ErrNameMismatch,
		},
		{
			name:             "name override",
			old:              tree{"NAME": "AppA", "VERSION": "1.0"},
			new:              tree{"NAME": "AppB", "VERSION": "1.1"},
			opts:             []Option{NameOverride("AppC")},
			expectedName:     "AppC",
			expectedVersions: model.Versions{From: "1.0", To: "1.1"},
			expectNameHeader: true,
		},
		{
			name:             "name in one tree only",
			old:              tree{"VERSION": "1.0"},
			new:              tree{"NAME": "app", "VERSION": "1.1"},
			expectedName:     "app",
			expectedVersions: model.Versions{From: "1.0", To: "1.1"},
			expectNameHeader: true,
		},
		{
			name:             "no name",
			old:              tree{"VERSION": "1.0"},
			new:              tree{"VERSION": "1.1"},
			expectedVersions: model.Versions{From: "1.0", To: "1.1"},
		},
		{
			name:      "missing versions",
			old:       tree{"NAME": "app"},
			new:       tree{"NAME": "app", "VERSION": "1.1"},
			wantError: status.ErrMissingVersions,
		},
		{
			name:             "suppressed missing versions",
			old:              tree{"NAME": "app"},
			new:              tree{"NAME": "app", "VERSION": "1.1"},
			opts:             []Option{SuppressMissingVersions(true)},
			expectedName:     "app",
			expectedVersions: model.Versions{From: model.UnknownVersion, To: model.UnknownVersion},
			expectNameHeader: true,
		},
		{
			name:      "reserved unknown version",
			old:       tree{"NAME": "app", "VERSION": model.UnknownVersion},
			new:       tree{"NAME": "app", "VERSION": "1.1"},
			wantError: status.ErrVersionParse,
		},
		{
			name:      "reserved separator in version",
			old:       tree{"NAME": "app", "VERSION": "1.0 -> 1.1"},
			new:       tree{"NAME": "app", "VERSION": "1.1"},
			wantError: status.ErrVersionParse,
		},
	}
}

func TestWeaveMetadata(t *testing.T) {
	for _, toPin := range weaveMetadataTestCases() {
		testcase := toPin
		t.Run(testcase.name, func(t *testing.T) {
			fs := testFs(t)
			writeTree(t, fs, "/old", testcase.old)
			writeTree(t, fs, "/new", testcase.new)

			opts := append([]Option{WithFs(fs), WorkDir(workDir)}, testcase.opts...)
			result, err := Weave(context.Background(), "/old", "/new", "/out/patch.zip", opts...)
			assertWorkspaceReleased(t, fs)
			if testcase.wantError != nil {
				require.Error(t, err)
				assert.Truef(t, errors.Is(err, testcase.wantError), "unexpected error: %v", err)
				found, _ := afero.Exists(fs, "/out/patch.zip")
				assert.False(t, found, "no patch should be written on failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testcase.expectedName, result.Name)
			assert.Equal(t, testcase.expectedVersions, result.Versions)

			entries := zipEntries(t, fs, "/out/patch.zip")
			assert.Equal(t, testcase.expectedVersions.String(), entries[model.VersionsFile])
			if testcase.expectNameHeader {
				assert.Equal(t, testcase.expectedName, entries[model.NameFile])
			} else {
				assert.NotContains(t, entries, model.NameFile)
			}
		})
	}
}
