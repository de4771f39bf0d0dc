package locator

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oneconcern/bandage/pkg/errors"
	"github.com/oneconcern/bandage/pkg/fetch"
	"github.com/oneconcern/bandage/pkg/storage"
	"github.com/oneconcern/bandage/pkg/storage/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocal(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0755))
	ctx := context.Background()

	store, key, err := Resolve(ctx, "/out/patch.zip", Fs(fs))
	require.NoError(t, err)
	assert.Equal(t, "patch.zip", key)
	require.NoError(t, store.Put(ctx, key, bytes.NewBufferString("zip"), storage.NoOverWrite))

	b, err := afero.ReadFile(fs, "/out/patch.zip")
	require.NoError(t, err)
	assert.Equal(t, "zip", string(b))

	_, _, err = Resolve(ctx, "", Fs(fs))
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}

func TestResolveHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/a/b/patch.zip" && r.URL.Query().Get("sig") == "xyz" {
			_, _ = w.Write([]byte("signed"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	ctx := context.Background()

	store, key, err := Resolve(ctx, server.URL+"/a/b/patch.zip?sig=xyz", Client(fetch.New(fetch.HTTPClient(server.Client()))))
	require.NoError(t, err)
	assert.Equal(t, "patch.zip?sig=xyz", key)
	assert.Equal(t, server.URL+"/a/b/", store.String())

	rdr, err := store.Get(ctx, key)
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "signed", string(b))

	_, _, err = Resolve(ctx, server.URL+"/a/b/")
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}

func TestResolveUnsupported(t *testing.T) {
	ctx := context.Background()
	_, _, err := Resolve(ctx, "ftp://example.com/patch.zip")
	assert.True(t, errors.Is(err, status.ErrUnsupportedLocator))

	_, _, err = Resolve(ctx, "gs://bucket-only")
	assert.True(t, errors.Is(err, status.ErrInvalidResource))

	_, _, err = Resolve(ctx, "s3://bucket-only/")
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}

func TestResolveS3(t *testing.T) {
	store, key, err := Resolve(context.Background(), "s3://releases/v1/patch.zip")
	require.NoError(t, err)
	assert.Equal(t, "v1/patch.zip", key)
	assert.Equal(t, "s3://releases", store.String())
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/x.zip"))
	assert.True(t, IsRemote("gs://bucket/x.zip"))
	assert.False(t, IsRemote("/tmp/x.zip"))
	assert.False(t, IsRemote(`C:\releases\x.zip`))
}
