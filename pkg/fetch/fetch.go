// Package fetch implements plain HTTP(S) GET of remote resources.
//
// A response with status 2xx, 301 or 302 is a success. Any other status is
// returned as a *StatusError. There is no retry.
package fetch

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	units "github.com/docker/go-units"
	"go.uber.org/zap"
)

// StatusError reports a non-success HTTP status
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch resource %s, returned status code %d", e.URL, e.Code)
}

// IsSuccess tells if an HTTP status code counts as a successful fetch
func IsSuccess(code int) bool {
	return code/100 == 2 || code == http.StatusMovedPermanently || code == http.StatusFound
}

// Client performs GET requests
type Client struct {
	hc *http.Client
	l  *zap.Logger
}

// Option is a functor to pass optional parameters to the client
type Option func(*Client)

// HTTPClient specifies the underlying http client. It defaults to http.DefaultClient.
func HTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// Logger specifies a logger for this client
func Logger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.l = logger
		}
	}
}

// New fetch client
func New(opts ...Option) *Client {
	c := &Client{
		hc: http.DefaultClient,
		l:  zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// Get a remote resource. The caller must close the returned reader.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if !IsSuccess(resp.StatusCode) {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		_ = resp.Body.Close()
		c.l.Debug("fetch failed", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	c.l.Debug("fetched", zap.String("url", url), zap.Int("status", resp.StatusCode),
		zap.String("size", units.HumanSize(float64(resp.ContentLength))))
	return resp.Body, nil
}

// GetBytes fetches a remote resource into memory
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	rdr, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return ioutil.ReadAll(rdr)
}
