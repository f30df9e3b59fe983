package rrd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/rrdarch/internal/logger"
)

// Options tunes a conversion. The zero value is ready to use.
type Options struct {
	// Logger receives one debug event per region. Nil discards them.
	Logger logger.Logger
}

// Result describes a finished conversion.
type Result struct {
	SourceArch    Arch   `json:"source_arch"`
	TargetArch    Arch   `json:"target_arch"`
	Header        Header `json:"header"`
	Rows          uint64 `json:"rows"`
	DataOffset    int64  `json:"data_offset"`
	BytesRead     int64  `json:"bytes_read"`
	BytesWritten  int64  `json:"bytes_written"`
	ExpectedSize  int64  `json:"expected_size"`
	NaNSwapped    int    `json:"nan_swapped"`
	TrailingBytes int64  `json:"trailing_bytes"`
}

// Convert reads the RRD file at src, detects its layout and writes the file
// re-encoded for target to dst. ArchAuto selects the opposite of the source.
//
// Header and target problems are reported before dst is created. After an
// error dst may hold a partial file; Convert does not remove it.
func Convert(src, dst string, target Arch, opts Options) (res *Result, err error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("rrd: open source: %w", err)
	}
	defer in.Close()

	r := newReader(in)
	h, arch, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	l, err := newLayout(arch, target)
	if err != nil {
		return nil, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("rrd: create destination: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("rrd: close destination: %w", cerr)
		}
	}()

	c := newConverter(r, out, l, h, opts)
	res, err = c.run()
	if err != nil {
		return res, err
	}

	fi, err := out.Stat()
	if err != nil {
		return res, fmt.Errorf("rrd: stat destination: %w", err)
	}
	if fi.Size() != res.ExpectedSize {
		return res, &IntegrityError{Region: "FILE", Expected: res.ExpectedSize, Actual: fi.Size()}
	}
	return res, nil
}

// Transcode runs the conversion over arbitrary streams. The integrity check
// compares against the number of bytes written to w.
func Transcode(src io.Reader, dst io.Writer, target Arch, opts Options) (*Result, error) {
	r := newReader(src)
	h, arch, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	l, err := newLayout(arch, target)
	if err != nil {
		return nil, err
	}
	return newConverter(r, dst, l, h, opts).run()
}

// converter holds the state of a single conversion.
type converter struct {
	r   *reader
	w   *writer
	l   layout
	h   Header
	log logger.Logger

	rows    uint64
	swapped int
	chunk   []byte
}

func newConverter(r *reader, w io.Writer, l layout, h Header, opts Options) *converter {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &converter{
		r:     r,
		w:     newWriter(w),
		l:     l,
		h:     h,
		log:   log.With("source", l.src.String(), "target", l.dst.String()),
		chunk: make([]byte, bufferSize),
	}
}

func (c *converter) run() (*Result, error) {
	res := &Result{
		SourceArch: c.l.src,
		TargetArch: c.l.dst,
		Header:     c.h,
	}
	c.log.Debug("header", "ds_count", c.h.DSCount, "rra_count", c.h.RRACount, "pdp_step", c.h.PDPStep)

	steps := []struct {
		region string
		fn     func() error
	}{
		{"HEADER", func() error { return writeHeader(c.w, c.h, c.l.dst) }},
		{"DS DEF", c.dsDefs},
		{"RRA DEF", c.rraDefs},
		{"LIVE HEAD", c.liveHead},
		{"PDP PREP", c.pdpPrep},
		{"CDP PREP", c.cdpPrep},
		{"RRA PTR", c.rraPtrs},
	}
	for _, s := range steps {
		c.r.region = s.region
		start := c.w.off
		if err := s.fn(); err != nil {
			return c.finish(res), err
		}
		c.log.Debug("region", "name", s.region, "src_offset", c.r.off, "dst_offset", start, "bytes", c.w.off-start)
	}

	res.DataOffset = c.w.off
	if want := DataOffset(c.h, c.l.dst); res.DataOffset != want {
		return c.finish(res), &IntegrityError{Region: "DEFINITIONS", Expected: want, Actual: res.DataOffset}
	}

	c.r.region = "DATA"
	if err := c.values(c.rows * uint64(c.h.DSCount)); err != nil {
		return c.finish(res), err
	}

	trailing, err := c.r.drain()
	res.TrailingBytes = trailing
	if err != nil {
		return c.finish(res), err
	}
	if trailing > 0 {
		c.log.Warn("ignoring bytes after last row", "bytes", trailing)
	}
	if err := c.w.flush(); err != nil {
		return c.finish(res), err
	}

	c.finish(res)
	res.ExpectedSize = res.DataOffset + valueSize*int64(res.Rows)*int64(c.h.DSCount)
	if res.BytesWritten != res.ExpectedSize {
		return res, &IntegrityError{Region: "DATA", Expected: res.ExpectedSize, Actual: res.BytesWritten}
	}
	c.log.Debug("converted", "rows", res.Rows, "bytes", res.BytesWritten, "nan_swapped", res.NaNSwapped)
	return res, nil
}

func (c *converter) finish(res *Result) *Result {
	res.Rows = c.rows
	res.BytesRead = c.r.off
	res.BytesWritten = c.w.off
	res.NaNSwapped = c.swapped
	return res
}

func (c *converter) dsDefs() error {
	for range c.h.DSCount {
		if err := c.copyBytes(dsDefNameSize); err != nil {
			return err
		}
		if err := c.values(paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) rraDefs() error {
	for range c.h.RRACount {
		if err := c.copyBytes(rraDefNameSize); err != nil {
			return err
		}
		if err := c.w.writeZeros(rraPadBefore(c.l.dst)); err != nil {
			return err
		}
		if err := c.r.skip(int64(rraPadBefore(c.l.src))); err != nil {
			return err
		}
		rows, err := c.l.long(c.r, c.w)
		if err != nil {
			return err
		}
		c.rows += uint64(rows)
		if _, err := c.l.long(c.r, c.w); err != nil {
			return err
		}
		if err := c.r.skip(int64(rraPadAfter(c.l.src))); err != nil {
			return err
		}
		if err := c.w.writeZeros(rraPadAfter(c.l.dst)); err != nil {
			return err
		}
		if err := c.values(paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) liveHead() error {
	for range 2 {
		if _, err := c.l.long(c.r, c.w); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) pdpPrep() error {
	return c.copyBytes(int64(c.h.DSCount) * pdpPrepSize)
}

func (c *converter) cdpPrep() error {
	return c.values(uint64(c.h.RRACount) * uint64(c.h.DSCount) * paramCount)
}

func (c *converter) rraPtrs() error {
	for range c.h.RRACount {
		if _, err := c.l.long(c.r, c.w); err != nil {
			return err
		}
	}
	return nil
}

// copyBytes moves n bytes verbatim.
func (c *converter) copyBytes(n int64) error {
	for n > 0 {
		p := c.chunk[:min(n, int64(len(c.chunk)))]
		if err := c.r.readFull(p); err != nil {
			return err
		}
		if err := c.w.write(p); err != nil {
			return err
		}
		n -= int64(len(p))
	}
	return nil
}

// values moves n doubles, swapping NaN patterns.
func (c *converter) values(n uint64) error {
	per := uint64(len(c.chunk) / valueSize)
	for n > 0 {
		k := min(n, per)
		p := c.chunk[:k*valueSize]
		if err := c.r.readFull(p); err != nil {
			return err
		}
		c.swapped += swapValues(p)
		if err := c.w.write(p); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// IsInputError reports whether err was caused by the source file or the
// requested target rather than by I/O on the destination.
func IsInputError(err error) bool {
	return errors.Is(err, ErrFormat) ||
		errors.Is(err, ErrAlignment) ||
		errors.Is(err, ErrArchMismatch) ||
		errors.Is(err, ErrUnknownArch)
}
