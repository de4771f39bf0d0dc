// Package httpstore exposes a read-only storage.Store over HTTP(S) GET.
package httpstore

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/oneconcern/bandage/pkg/errors"
	"github.com/oneconcern/bandage/pkg/fetch"
	"github.com/oneconcern/bandage/pkg/storage"
	"github.com/oneconcern/bandage/pkg/storage/status"
)

// Option is a functor to pass optional parameters to the http store
type Option func(*httpStore)

// Client specifies the fetch client used to GET objects
func Client(client *fetch.Client) Option {
	return func(h *httpStore) {
		if client != nil {
			h.client = client
		}
	}
}

// New creates a read-only store rooted at some base URL.
// Keys are resolved as references relative to the base.
func New(base string, opts ...Option) (storage.Store, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, status.ErrInvalidResource.Wrap(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, status.ErrInvalidResource.WrapMessage("not an http(s) URL: %q", base)
	}
	h := &httpStore{
		base:   u,
		client: fetch.New(),
	}
	for _, apply := range opts {
		apply(h)
	}
	return h, nil
}

type httpStore struct {
	base   *url.URL
	client *fetch.Client
}

func (h *httpStore) String() string {
	return h.base.String()
}

func (h *httpStore) resolve(key string) (string, error) {
	ref, err := url.Parse(key)
	if err != nil {
		return "", status.ErrInvalidResource.Wrap(err)
	}
	return h.base.ResolveReference(ref).String(), nil
}

func (h *httpStore) Has(ctx context.Context, key string) (bool, error) {
	rdr, err := h.Get(ctx, key)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_, _ = io.Copy(ioutil.Discard, rdr)
	return true, rdr.Close()
}

func (h *httpStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := h.resolve(key)
	if err != nil {
		return nil, err
	}
	rdr, err := h.client.Get(ctx, target)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return rdr, nil
}

func (h *httpStore) Put(context.Context, string, io.Reader, bool) error {
	return status.ErrNotSupported.WrapMessage("%s is read-only", h.String())
}

func toSentinelErrors(err error) error {
	var statusErr *fetch.StatusError
	if !errors.As(err, &statusErr) {
		return status.ErrStorageAPI.Wrap(err)
	}
	switch statusErr.Code {
	case http.StatusUnauthorized:
		return status.ErrUnauthorized.Wrap(err)
	case http.StatusForbidden:
		return status.ErrForbidden.Wrap(err)
	case http.StatusNotFound, http.StatusGone:
		return status.ErrNotFound.Wrap(err)
	default:
		return status.ErrStorageAPI.Wrap(err)
	}
}
