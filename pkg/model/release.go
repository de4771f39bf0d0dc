package model

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Release describes the identity of a release tree
type Release struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	HasName    bool `json:"-" yaml:"-"`
	HasVersion bool `json:"-" yaml:"-"`
}

// ReadRelease reads the NAME and VERSION files at the root of a release tree
func ReadRelease(fs afero.Fs, root string) (Release, error) {
	var (
		r   Release
		err error
	)
	r.Name, r.HasName, err = ReadToken(fs, root, NameFile)
	if err != nil {
		return Release{}, err
	}
	r.Version, r.HasVersion, err = ReadToken(fs, root, VersionFile)
	if err != nil {
		return Release{}, err
	}
	return r, nil
}

// ReadToken reads a one-line text token from a file in dir.
//
// A missing file is not an error: found is false.
func ReadToken(fs afero.Fs, dir, file string) (token string, found bool, err error) {
	b, err := afero.ReadFile(fs, filepath.Join(dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(b)), true, nil
}

// WriteToken truncates and writes a text token to a file in dir
func WriteToken(fs afero.Fs, dir, file, token string) error {
	return afero.WriteFile(fs, filepath.Join(dir, file), []byte(token), 0644)
}

// RewriteToken truncates and writes a text token to a file in dir, keeping the
// line ending the previous content was terminated with
func RewriteToken(fs afero.Fs, dir, file, token string) error {
	b, err := afero.ReadFile(fs, filepath.Join(dir, file))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	switch {
	case bytes.HasSuffix(b, []byte("\r\n")):
		token += "\r\n"
	case bytes.HasSuffix(b, []byte("\n")):
		token += "\n"
	}
	return WriteToken(fs, dir, file, token)
}
