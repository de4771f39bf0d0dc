// Package workspace provides the ephemeral scratch space of a weave or patch session.
//
// Each workspace is a uniquely named directory, exclusively owned by the
// session that created it. Close removes it.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Workspace is a session scratch directory
type Workspace struct {
	fs   afero.Fs
	root string
	l    *zap.Logger
}

// Option is a functor to pass optional parameters to a workspace
type Option func(*Workspace)

// Logger specifies a logger for this workspace
func Logger(logger *zap.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.l = logger
		}
	}
}

// BaseDir sets the parent directory of the workspace. It defaults to the OS temporary directory.
func BaseDir(dir string) Option {
	return func(w *Workspace) {
		if dir != "" {
			w.root = dir
		}
	}
}

// New creates a workspace named after prefix and a unique, time-ordered identifier
func New(fs afero.Fs, prefix string, subdirs []string, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		fs:   fs,
		root: os.TempDir(),
		l:    zap.NewNop(),
	}
	for _, apply := range opts {
		apply(w)
	}
	w.root = filepath.Join(w.root, prefix+"_"+ksuid.New().String())

	if err := fs.MkdirAll(w.root, 0700); err != nil {
		return nil, err
	}
	for _, dir := range subdirs {
		if err := fs.MkdirAll(w.Path(dir), 0700); err != nil {
			_ = fs.RemoveAll(w.root)
			return nil, err
		}
	}
	w.l.Debug("workspace created", zap.String("path", w.root))
	return w, nil
}

// Root of the workspace
func (w *Workspace) Root() string {
	return w.root
}

// Fs the workspace lives on
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Path within the workspace
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// Close removes the workspace and everything in it
func (w *Workspace) Close() error {
	if err := w.fs.RemoveAll(w.root); err != nil {
		w.l.Warn("could not remove workspace", zap.String("path", w.root), zap.Error(err))
		return err
	}
	w.l.Debug("workspace removed", zap.String("path", w.root))
	return nil
}
