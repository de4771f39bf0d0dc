// Package locator maps locator strings to a store and a key.
//
// Supported locators:
//   - local paths, e.g. /var/releases/patch.zip
//   - http(s) URLs, e.g. https://example.com/releases/patch.zip
//   - Google Cloud Storage objects, e.g. gs://bucket/path/patch.zip
//   - S3 objects, e.g. s3://bucket/path/patch.zip
package locator

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/afero"

	"github.com/oneconcern/bandage/pkg/fetch"
	"github.com/oneconcern/bandage/pkg/storage"
	"github.com/oneconcern/bandage/pkg/storage/gcs"
	"github.com/oneconcern/bandage/pkg/storage/httpstore"
	"github.com/oneconcern/bandage/pkg/storage/localfs"
	"github.com/oneconcern/bandage/pkg/storage/status"
	"github.com/oneconcern/bandage/pkg/storage/sthree"
)

// Option is a functor to pass optional parameters to the locator resolution
type Option func(*settings)

type settings struct {
	fs             afero.Fs
	client         *fetch.Client
	credentialFile string
	awsConfig      *aws.Config
}

// Fs specifies the file system for local paths. It defaults to the OS file system.
func Fs(fs afero.Fs) Option {
	return func(s *settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Client specifies the fetch client for http(s) locators
func Client(client *fetch.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.client = client
		}
	}
}

// GCSCredentials specifies a credentials file for gs:// locators
func GCSCredentials(file string) Option {
	return func(s *settings) {
		s.credentialFile = file
	}
}

// AWSConfig specifies the configuration for s3:// locators
func AWSConfig(cfg *aws.Config) Option {
	return func(s *settings) {
		s.awsConfig = cfg
	}
}

// IsRemote tells if a locator designates a remote object rather than a local path
func IsRemote(loc string) bool {
	return strings.Contains(loc, "://")
}

// Resolve a locator to a store and the key of the designated object in that store
func Resolve(ctx context.Context, loc string, opts ...Option) (storage.Store, string, error) {
	s := settings{fs: afero.NewOsFs()}
	for _, apply := range opts {
		apply(&s)
	}

	if !IsRemote(loc) {
		return resolveLocal(s, loc)
	}

	u, err := url.Parse(loc)
	if err != nil {
		return nil, "", status.ErrUnsupportedLocator.Wrap(err)
	}
	switch u.Scheme {
	case "http", "https":
		return resolveHTTP(s, u)
	case "gs":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, "", status.ErrInvalidResource.WrapMessage("expected gs://bucket/key, got %q", loc)
		}
		store, err := gcs.New(ctx, u.Host, s.credentialFile)
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, "", status.ErrInvalidResource.WrapMessage("expected s3://bucket/key, got %q", loc)
		}
		store, err := sthree.New(sthree.Bucket(u.Host), sthree.AWSConfig(s.awsConfig))
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	default:
		return nil, "", status.ErrUnsupportedLocator.WrapMessage("scheme %q in %q", u.Scheme, loc)
	}
}

func resolveLocal(s settings, loc string) (storage.Store, string, error) {
	if loc == "" {
		return nil, "", status.ErrInvalidResource.WrapMessage("empty locator")
	}
	abs, err := filepath.Abs(loc)
	if err != nil {
		return nil, "", status.ErrInvalidResource.Wrap(err)
	}
	dir, key := filepath.Split(abs)
	return localfs.New(afero.NewBasePathFs(s.fs, dir)), key, nil
}

func resolveHTTP(s settings, u *url.URL) (storage.Store, string, error) {
	dir, name := path.Split(u.Path)
	if name == "" {
		return nil, "", status.ErrInvalidResource.WrapMessage("no object name in %q", u.String())
	}
	base := *u
	base.Path = dir
	base.RawPath = ""
	base.RawQuery = ""
	base.Fragment = ""

	key := (&url.URL{Path: name, RawQuery: u.RawQuery}).String()
	store, err := httpstore.New(base.String(), httpstore.Client(s.client))
	if err != nil {
		return nil, "", err
	}
	return store, key, nil
}
