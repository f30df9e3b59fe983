// Package compress wraps RRD streams in the codec implied by a file
// extension: .gz (gzip), .zst (zstd) or .s2 (s2). Other paths pass through.
package compress

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

type Codec uint8

const (
	None Codec = iota
	Gzip
	Zstd
	S2
)

func (c Codec) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	default:
		return "none"
	}
}

// Detect picks the codec from the extension of path.
func Detect(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".s2":
		return S2
	default:
		return None
	}
}

// NewReader decompresses r. The returned closer does not close r.
func NewReader(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("compress: gzip reader: %w", err)
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// NewWriter compresses into w. Close flushes the codec but does not close w.
func NewWriter(w io.Writer, c Codec) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd writer: %w", err)
		}
		return enc, nil
	case S2:
		return s2.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// OpenReader opens path and decompresses it according to its extension.
func OpenReader(path string) (io.ReadCloser, Codec, error) {
	c := Detect(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, c, err
	}
	r, err := NewReader(f, c)
	if err != nil {
		_ = f.Close()
		return nil, c, err
	}
	return &fileReader{ReadCloser: r, f: f}, c, nil
}

// CreateWriter creates path and compresses into it according to its
// extension.
func CreateWriter(path string) (io.WriteCloser, Codec, error) {
	c := Detect(path)
	f, err := os.Create(path)
	if err != nil {
		return nil, c, err
	}
	w, err := NewWriter(f, c)
	if err != nil {
		_ = f.Close()
		return nil, c, err
	}
	return &fileWriter{WriteCloser: w, f: f}, c, nil
}

type fileReader struct {
	io.ReadCloser
	f *os.File
}

func (r *fileReader) Close() error {
	return errors.Join(r.ReadCloser.Close(), r.f.Close())
}

type fileWriter struct {
	io.WriteCloser
	f *os.File
}

func (w *fileWriter) Close() error {
	return errors.Join(w.WriteCloser.Close(), w.f.Close())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
