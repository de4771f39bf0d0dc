package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oneconcern/bandage/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuccess(t *testing.T) {
	for _, code := range []int{200, 201, 204, 299, 301, 302} {
		assert.Truef(t, IsSuccess(code), "code %d", code)
	}
	for _, code := range []int{100, 303, 304, 307, 400, 404, 500} {
		assert.Falsef(t, IsSuccess(code), "code %d", code)
	}
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("payload"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := New(HTTPClient(server.Client()))
	b, err := c.GetBytes(context.Background(), server.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	_, err = c.GetBytes(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "404")
}
