// Package archive packs a directory into a zip archive and unpacks it back.
//
// Entry names are slash-separated paths relative to the packed directory.
// Directories are stored as entries of their own, so that empty directories
// survive a round trip.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Pack writes the content of dir as a zip archive to w
func Pack(fs afero.Fs, dir string, w io.Writer) error {
	zw := zip.NewWriter(w)
	err := afero.Walk(fs, dir, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, pth)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		if info.IsDir() {
			header.Name = name + "/"
			header.Method = zip.Store
			_, err = zw.CreateHeader(header)
			return err
		}
		header.Name = name
		header.Method = zip.Deflate
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := fs.Open(pth)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(entry, src)
		return err
	})
	return multierr.Combine(err, zw.Close())
}

// Unpack extracts a zip archive of the given size into dir.
//
// Entries that would land outside dir are rejected.
func Unpack(fs afero.Fs, r io.ReaderAt, size int64, dir string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return err
	}
	if err = fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, f := range zr.File {
		if err := unpackEntry(fs, f, dir); err != nil {
			return err
		}
	}
	return nil
}

func unpackEntry(fs afero.Fs, f *zip.File, dir string) error {
	name := strings.TrimSuffix(f.Name, "/")
	if name == "" || path.IsAbs(name) || path.Clean(name) != name || name == ".." || strings.HasPrefix(name, "../") {
		return fmt.Errorf("illegal entry name %q in archive", f.Name)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))

	if f.FileInfo().IsDir() {
		return fs.MkdirAll(target, dirMode(f.Mode()))
	}
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(f.Mode()))
	if err != nil {
		return err
	}
	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func fileMode(m os.FileMode) os.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm | 0600
	}
	return 0644
}

func dirMode(m os.FileMode) os.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm | 0700
	}
	return 0755
}
