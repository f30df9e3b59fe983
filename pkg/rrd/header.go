package rrd

import (
	"bytes"
	"fmt"
	"math"
)

// Header holds the counts parsed from stat_head.
type Header struct {
	DSCount  uint32 `json:"ds_count"`
	RRACount uint32 `json:"rra_count"`
	PDPStep  uint32 `json:"pdp_step"`
}

// readHeader validates stat_head and detects the source layout from the
// zero padding that the wide layout places after ds_cnt and rra_cnt.
func readHeader(r *reader) (Header, Arch, error) {
	r.region = "HEADER"
	var h Header

	var cookie [len(Cookie)]byte
	if err := r.readFull(cookie[:]); err != nil {
		return h, 0, err
	}
	if string(cookie[:]) != Cookie {
		return h, 0, mismatch("COOKIE", quoted(Cookie), quoted(string(cookie[:])))
	}

	var version [len(Version)]byte
	if err := r.readFull(version[:]); err != nil {
		return h, 0, err
	}
	if string(version[:]) != Version {
		return h, 0, mismatch("VERSION", quoted(Version), quoted(string(version[:])))
	}

	var marker [markerSize]byte
	if err := r.readFull(marker[:]); err != nil {
		return h, 0, err
	}
	if !bytes.Equal(marker[:], zeroPad[:markerSize]) {
		return h, 0, mismatch("ARCHITECTURE", fmt.Sprintf("% x", zeroPad[:markerSize]), fmt.Sprintf("% x", marker[:]))
	}

	fc, err := r.readF64()
	if err != nil {
		return h, 0, err
	}
	if fc != FloatCookie {
		return h, 0, mismatch("FLOAT COOKIE", FloatCookie, fc)
	}

	extra := 0
	if h.DSCount, err = r.readU32(); err != nil {
		return h, 0, err
	}
	if h.DSCount == 0 {
		return h, 0, mismatch("DS COUNT", ">= 1", 0)
	}

	if h.RRACount, err = readCount(r, &extra); err != nil {
		return h, 0, err
	}
	if h.RRACount == 0 {
		return h, 0, mismatch("RRA COUNT", ">= 1", 0)
	}

	if h.PDPStep, err = readCount(r, &extra); err != nil {
		return h, 0, err
	}
	if h.PDPStep == 0 {
		return h, 0, mismatch("PDP STEP", ">= 1", 0)
	}

	if err := r.skip(headerPadSize); err != nil {
		return h, 0, err
	}

	arch, err := detectArch(extra)
	if err != nil {
		return h, 0, err
	}

	if err := r.skip(reservedSize); err != nil {
		return h, 0, err
	}
	return h, arch, nil
}

// readCount reads a u32, rereading once if the first value is zero. A zero
// is the upper half of the previous wide field.
func readCount(r *reader, extra *int) (uint32, error) {
	v, err := r.readU32()
	if err != nil || v != 0 {
		return v, err
	}
	*extra++
	return r.readU32()
}

// detectArch maps the number of skipped padding fields to a layout.
func detectArch(extra int) (Arch, error) {
	switch extra {
	case 0:
		return ArchARMv6l, nil
	case 2:
		return ArchX8664, nil
	default:
		return 0, &AlignmentError{Extra: extra}
	}
}

func writeHeader(w *writer, h Header, a Arch) error {
	if err := w.writeString(Cookie); err != nil {
		return err
	}
	if err := w.writeString(Version); err != nil {
		return err
	}
	if err := w.writeZeros(markerSize); err != nil {
		return err
	}
	if err := w.writeU64(math.Float64bits(FloatCookie)); err != nil {
		return err
	}
	for _, v := range []uint32{h.DSCount, h.RRACount} {
		if err := w.writeU32(v); err != nil {
			return err
		}
		if a.Wide() {
			if err := w.writeZeros(4); err != nil {
				return err
			}
		}
	}
	if err := w.writeU32(h.PDPStep); err != nil {
		return err
	}
	return w.writeZeros(headerPadSize + reservedSize)
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
