// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

const (
	// NoOverWrite makes Put fail when the key already exists
	NoOverWrite = true

	// OverWrite makes Put replace an existing key
	OverWrite = false
)

// Store implementations know how to read and write objects under a key.
//
// Typically this is something file system-like. Examples are GCS, S3, local FS, HTTP servers...
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
}

// PipeIO copies a reader to a writer, favoring io.WriterTo when the reader supports it
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	if wt, ok := reader.(io.WriterTo); ok {
		return wt.WriteTo(writer)
	}
	return io.Copy(writer, reader)
}

// ReadTee reads an object from a source store and duplicates it to a destination store
func ReadTee(ctx context.Context, sStore Store, source string, dStore Store, destination string, exclusive bool) (int64, error) {
	reader, err := sStore.Get(ctx, source)
	if err != nil {
		return 0, err
	}
	defer reader.Close()
	counter := &countingReader{r: reader}
	if err = dStore.Put(ctx, destination, counter, exclusive); err != nil {
		return 0, err
	}
	return counter.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
