package core

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type diffFixture struct {
	name     string
	old      tree
	new      tree
	expected DiffResult
}

func diffTestCases() []diffFixture {
	return []diffFixture{
		{
			name: "identical trees",
			old:  tree{"NAME": "app", "bin/tool": "v1", "doc/readme": "r"},
			new:  tree{"NAME": "app", "bin/tool": "v1", "doc/readme": "r"},
			expected: DiffResult{
				Unchanged: []string{"NAME", "bin/tool", "doc/readme"},
			},
		},
		{
			name: "disjoint trees",
			old:  tree{"a": "1", "d/x": "2"},
			new:  tree{"b": "1", "e/y": "2"},
			expected: DiffResult{
				Removed: []string{"a", "d", "d/x"},
				Added:   []string{"b", "e", "e/y"},
			},
		},
		{
			name: "nested changes",
			old:  tree{"bin/tool": "v1", "bin/lib/x.so": "x", "doc/readme": "r", "old.txt": "o"},
			new:  tree{"bin/tool": "v2", "bin/lib/x.so": "x", "bin/lib/y.so": "y", "doc/readme": "r", "new/": ""},
			expected: DiffResult{
				Removed:   []string{"old.txt"},
				Added:     []string{"bin/lib/y.so", "new"},
				Unchanged: []string{"bin/lib/x.so", "doc/readme"},
				Changed:   []string{"bin/tool"},
			},
		},
		{
			name: "file replaced by a directory",
			old:  tree{"conf": "file", "x": "1"},
			new:  tree{"conf/a": "1", "conf/b/c": "2", "x": "1"},
			expected: DiffResult{
				Added:     []string{"conf/a", "conf/b", "conf/b/c"},
				Unchanged: []string{"x"},
				Changed:   []string{"conf"},
			},
		},
		{
			name: "directory replaced by a file",
			old:  tree{"lib/a": "1", "lib/sub/b": "2", "x": "1"},
			new:  tree{"lib": "file", "x": "1"},
			expected: DiffResult{
				Removed:   []string{"lib/a", "lib/sub", "lib/sub/b"},
				Unchanged: []string{"x"},
				Changed:   []string{"lib"},
			},
		},
		{
			name: "directory in one tree only",
			old:  tree{"keep": "k", "gone/a": "1", "gone/b/c": "2"},
			new:  tree{"keep": "k", "gone.txt": "n"},
			expected: DiffResult{
				Removed:   []string{"gone", "gone/a", "gone/b", "gone/b/c"},
				Added:     []string{"gone.txt"},
				Unchanged: []string{"keep"},
			},
		},
		{
			name: "nested directories in the new tree only",
			old:  tree{"keep": "k"},
			new:  tree{"keep": "k", "lib/a.txt": "a", "lib/sub/b.txt": "b", "lib/empty/": ""},
			expected: DiffResult{
				Added:     []string{"lib", "lib/a.txt", "lib/empty", "lib/sub", "lib/sub/b.txt"},
				Unchanged: []string{"keep"},
			},
		},
		{
			name: "same size, different content",
			old:  tree{"data": "abcd", "empty": ""},
			new:  tree{"data": "abce", "empty": ""},
			expected: DiffResult{
				Unchanged: []string{"empty"},
				Changed:   []string{"data"},
			},
		},
		{
			name: "delimiter-like file names",
			old:  tree{"a, b.txt": "1", "[x].txt": "2", `it's "q".txt`: "3"},
			new:  tree{"a, b.txt": "1", "[x].txt": "two", `it's "q".txt`: "3", "c -> d||e": "4"},
			expected: DiffResult{
				Added:     []string{"c -> d||e"},
				Unchanged: []string{"a, b.txt", `it's "q".txt`},
				Changed:   []string{"[x].txt"},
			},
		},
	}
}

func TestDiffTrees(t *testing.T) {
	defer goleak.VerifyNone(t)
	for _, toPin := range diffTestCases() {
		testcase := toPin
		t.Run(testcase.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeTree(t, fs, "/old", testcase.old)
			writeTree(t, fs, "/new", testcase.new)

			result, err := DiffTrees(context.Background(), "/old", "/new", WithFs(fs))
			require.NoError(t, err)
			assert.Equal(t, testcase.expected, result)
			assert.Equal(t, len(testcase.expected.Removed)+len(testcase.expected.Added)+len(testcase.expected.Changed) == 0, result.IsEmpty())
		})
	}
}

func TestDiffTreesCoversEveryFile(t *testing.T) {
	for _, toPin := range diffTestCases() {
		testcase := toPin
		t.Run(testcase.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeTree(t, fs, "/old", testcase.old)
			writeTree(t, fs, "/new", testcase.new)

			result, err := DiffTrees(context.Background(), "/old", "/new", WithFs(fs))
			require.NoError(t, err)

			seen := make(map[string]int)
			for _, set := range [][]string{result.Removed, result.Added, result.Unchanged, result.Changed} {
				for _, pth := range set {
					seen[pth]++
				}
			}
			for pth, count := range seen {
				assert.Equalf(t, 1, count, "%q is listed in more than one set", pth)
			}
			for _, files := range []tree{testcase.old, testcase.new} {
				for pth := range files {
					if strings.HasSuffix(pth, "/") {
						continue
					}
					assert.Containsf(t, seen, pth, "%q is missing from the diff", pth)
				}
			}
		})
	}
}

func TestDiffTreesIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/release", tree{
		"NAME":          "app",
		"VERSION":       "1.0",
		"bin/tool":      "binary",
		"lib/a/b/c.dat": "deep",
		"share/":        "",
	})

	result, err := DiffTrees(context.Background(), "/release", "/release", WithFs(fs))
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, []string{"NAME", "VERSION", "bin/tool", "lib/a/b/c.dat"}, result.Unchanged)

	manifest := result.Manifest()
	assert.Equal(t, result.Unchanged, manifest.Keep)
	assert.Empty(t, manifest.Add)
}

func TestDiffTreesErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/old", tree{"a": "1"})
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0644))

	_, err := DiffTrees(context.Background(), "/old", "/missing", WithFs(fs))
	require.Error(t, err)

	_, err = DiffTrees(context.Background(), "/file", "/old", WithFs(fs))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DiffTrees(ctx, "/old", "/old", WithFs(fs))
	require.ErrorIs(t, err, context.Canceled)
}
