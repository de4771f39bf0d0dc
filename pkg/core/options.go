package core

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/bandage/pkg/fetch"
	"github.com/oneconcern/bandage/pkg/storage/locator"
)

// Option sets options for core operations.
//
// Options that do not apply to an operation are ignored by that operation.
type Option func(*Settings)

// Settings defines various settings for core features
type Settings struct {
	fs          afero.Fs
	l           *zap.Logger
	fetcher     *fetch.Client
	locatorOpts []locator.Option
	workDir     string

	// weave
	nameOverride            string
	suppressMissingVersions bool
	overwrite               bool
	dryRun                  bool

	// apply
	skipNameCheck    bool
	skipVersionCheck bool
	skipKeepCheck    bool

	// supply
	chained bool
}

func defaultSettings() Settings {
	return Settings{
		fs:      afero.NewOsFs(),
		l:       zap.NewNop(),
		fetcher: fetch.New(),
	}
}

func newSettings(opts []Option) Settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	return s
}

func (s Settings) locatorOptions() []locator.Option {
	return append([]locator.Option{locator.Fs(s.fs), locator.Client(s.fetcher)}, s.locatorOpts...)
}

// WithFs sets the file system holding release trees, targets and workspaces. It defaults to the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(s *Settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.l = l
		}
	}
}

// WithFetchClient sets the client used to GET remote resources
func WithFetchClient(c *fetch.Client) Option {
	return func(s *Settings) {
		if c != nil {
			s.fetcher = c
		}
	}
}

// WithLocatorOptions passes options to resolve remote locators (cloud credentials...)
func WithLocatorOptions(opts ...locator.Option) Option {
	return func(s *Settings) {
		s.locatorOpts = append(s.locatorOpts, opts...)
	}
}

// WorkDir sets the parent directory of session workspaces. It defaults to the OS temporary directory.
func WorkDir(dir string) Option {
	return func(s *Settings) {
		s.workDir = dir
	}
}

// NameOverride sets the NAME of the patch, regardless of the NAME of the release trees
func NameOverride(name string) Option {
	return func(s *Settings) {
		s.nameOverride = name
	}
}

// SuppressMissingVersions tolerates release trees without VERSION.
//
// Patches woven this way carry unknown versions and take no part in lineage resolution.
func SuppressMissingVersions(suppress bool) Option {
	return func(s *Settings) {
		s.suppressMissingVersions = suppress
	}
}

// Overwrite allows a woven patch to replace an existing object at the output location
func Overwrite(overwrite bool) Option {
	return func(s *Settings) {
		s.overwrite = overwrite
	}
}

// DryRun computes the difference and metadata of a weave without producing an archive
func DryRun(dryRun bool) Option {
	return func(s *Settings) {
		s.dryRun = dryRun
	}
}

// SkipNameCheck disables the NAME consistency check when applying a patch. This is unsafe.
func SkipNameCheck(skip bool) Option {
	return func(s *Settings) {
		s.skipNameCheck = skip
	}
}

// SkipVersionCheck disables the VERSION consistency check when applying a patch. This is unsafe.
func SkipVersionCheck(skip bool) Option {
	return func(s *Settings) {
		s.skipVersionCheck = skip
	}
}

// SkipKeepCheck disables the check that kept paths exist in the target. This is unsafe.
func SkipKeepCheck(skip bool) Option {
	return func(s *Settings) {
		s.skipKeepCheck = skip
	}
}

// Chained makes Supply search chains of patches rather than a single hop
func Chained(chained bool) Option {
	return func(s *Settings) {
		s.chained = chained
	}
}
