package model

import (
	"bytes"
	"testing"

	"github.com/oneconcern/bandage/pkg/core/status"
	"github.com/oneconcern/bandage/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	m := Manifest{
		Remove:  []string{"old/b", "old/a"},
		Add:     []string{"dir, with [brackets]/x", `quote'd "file"`},
		Replace: []string{"bin/tool"},
		Digests: map[string]string{"replace/bin/tool": "abcd"},
	}
	b, err := m.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"keep": []`)
	assert.Equal(t, []string{"old/b", "old/a"}, m.Remove, "marshaling must not reorder the caller's sets")

	decoded, err := UnmarshalManifest(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"old/a", "old/b"}, decoded.Remove)
	assert.Equal(t, []string{"dir, with [brackets]/x", `quote'd "file"`}, decoded.Add)
	assert.Empty(t, decoded.Keep)
	assert.Equal(t, "abcd", decoded.Digests["replace/bin/tool"])
	assert.Equal(t, 5, decoded.Len())
}

func TestUnmarshalManifestRejectsEscapes(t *testing.T) {
	_, err := UnmarshalManifest([]byte(`{"remove":["../../etc/passwd"],"add":[],"keep":[],"replace":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidPath))

	_, err = UnmarshalManifest([]byte(`{"remove": "[a, b]"}`))
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	d1, err := Digest(bytes.NewBufferString("payload"))
	require.NoError(t, err)
	d2, err := Digest(bytes.NewBufferString("payload"))
	require.NoError(t, err)
	d3, err := Digest(bytes.NewBufferString("payload!"))
	require.NoError(t, err)

	assert.Len(t, d1, 128)
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
}
