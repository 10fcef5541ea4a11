// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinPath selects standard input instead of a file.
const StdinPath = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open opens path for reading, or wraps stdin when path is StdinPath.
func Open(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == StdinPath {
		return NewReader(io.NopCloser(stdin))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}

	reader, err := NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}
	return reader, nil
}

// NewReader inspects the first bytes of source and returns a reader of the
// decompressed content. Closing it also closes source.
func NewReader(source io.ReadCloser) (io.ReadCloser, error) {
	buffered := bufio.NewReader(source)
	header, err := buffered.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(header, gzipMagic):
		gzipReader, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &readCloser{Reader: gzipReader, closers: []func() error{gzipReader.Close, source.Close}}, nil
	case bytes.HasPrefix(header, zstdMagic):
		zstdReader, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &readCloser{
			Reader: zstdReader,
			closers: []func() error{
				func() error {
					zstdReader.Close()
					return nil
				},
				source.Close,
			},
		}, nil
	default:
		return &readCloser{Reader: buffered, closers: []func() error{source.Close}}, nil
	}
}
