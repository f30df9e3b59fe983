package rrd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var le = binary.LittleEndian

const bufferSize = 64 << 10

// reader is a positioned little-endian source. Short reads are reported as
// FormatErrors naming the region being decoded.
type reader struct {
	r      *bufio.Reader
	off    int64
	region string
	buf    [valueSize]byte
}

func newReader(r io.Reader) *reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &reader{r: br, region: "HEADER"}
	}
	return &reader{r: bufio.NewReaderSize(r, bufferSize), region: "HEADER"}
}

func (r *reader) truncated(n int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{
			Field:    r.region,
			Expected: fmt.Sprintf("%d bytes at offset %d", n, r.off),
			Actual:   "end of file",
			Err:      io.ErrUnexpectedEOF,
		}
	}
	return fmt.Errorf("rrd: read %s at offset %d: %w", r.region, r.off, err)
}

// next returns the following n bytes (n <= 8). The slice is only valid until
// the next call.
func (r *reader) next(n int) ([]byte, error) {
	b := r.buf[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, r.truncated(n, err)
	}
	r.off += int64(n)
	return b, nil
}

func (r *reader) readFull(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		return r.truncated(len(p), err)
	}
	r.off += int64(len(p))
	return nil
}

func (r *reader) readU32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return le.Uint32(b), nil
}

func (r *reader) readU64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return le.Uint64(b), nil
}

func (r *reader) readF64() (float64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(le.Uint64(b)), nil
}

// readLong reads a long of the given layout and returns its low 32 bits.
func (r *reader) readLong(a Arch) (uint32, error) {
	v, err := r.readU32()
	if err != nil {
		return 0, err
	}
	if a.Wide() {
		if err := r.skip(4); err != nil {
			return 0, err
		}
	}
	return v, nil
}

func (r *reader) skip(n int64) error {
	got, err := io.CopyN(io.Discard, r.r, n)
	r.off += got
	if err != nil {
		return r.truncated(int(n-got), err)
	}
	return nil
}

// drain consumes everything left and returns the count.
func (r *reader) drain() (int64, error) {
	n, err := io.Copy(io.Discard, r.r)
	r.off += n
	if err != nil {
		return n, fmt.Errorf("rrd: read trailing bytes: %w", err)
	}
	return n, nil
}

// writer is a positioned destination. Callers must flush.
type writer struct {
	w   *bufio.Writer
	off int64
	buf [valueSize]byte
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriterSize(w, bufferSize)}
}

func (w *writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.off += int64(n)
	if err != nil {
		return fmt.Errorf("rrd: write at offset %d: %w", w.off, err)
	}
	return nil
}

func (w *writer) writeString(s string) error {
	n, err := w.w.WriteString(s)
	w.off += int64(n)
	if err != nil {
		return fmt.Errorf("rrd: write at offset %d: %w", w.off, err)
	}
	return nil
}

var zeroPad [reservedSize]byte

func (w *writer) writeZeros(n int) error {
	for n > 0 {
		chunk := min(n, len(zeroPad))
		if err := w.write(zeroPad[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (w *writer) writeU32(v uint32) error {
	le.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

func (w *writer) writeU64(v uint64) error {
	le.PutUint64(w.buf[:8], v)
	return w.write(w.buf[:8])
}

func (w *writer) flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("rrd: flush: %w", err)
	}
	return nil
}
