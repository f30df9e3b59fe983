package rrd

import (
	"fmt"
	"strings"
)

// Arch identifies one of the two supported on-disk layouts.
type Arch uint8

const (
	// ArchAuto asks a conversion to target whichever layout the source is not.
	ArchAuto Arch = iota
	// ArchARMv6l is the narrow layout: 4-byte longs.
	ArchARMv6l
	// ArchX8664 is the wide layout: 8-byte longs.
	ArchX8664
)

// ParseArch maps a user supplied name to an Arch. The empty string and
// "auto" select ArchAuto.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ArchAuto, nil
	case "armv6l", "arm", "narrow", "32":
		return ArchARMv6l, nil
	case "x86_64", "amd64", "wide", "64":
		return ArchX8664, nil
	default:
		return ArchAuto, fmt.Errorf("%w: %q", ErrUnknownArch, s)
	}
}

func (a Arch) String() string {
	switch a {
	case ArchARMv6l:
		return "armv6l"
	case ArchX8664:
		return "x86_64"
	default:
		return "auto"
	}
}

func (a Arch) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Arch) UnmarshalText(b []byte) error {
	v, err := ParseArch(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Wide reports whether longs are 8 bytes wide.
func (a Arch) Wide() bool {
	return a == ArchX8664
}

// Other returns the opposite layout.
func (a Arch) Other() Arch {
	if a == ArchX8664 {
		return ArchARMv6l
	}
	return ArchX8664
}

// LongSize is the on-disk width of a C long.
func (a Arch) LongSize() int {
	if a.Wide() {
		return 8
	}
	return 4
}

// HeaderSize is the length of stat_head. The two layouts differ by 8 bytes:
// x86_64 pads ds_cnt and rra_cnt to 8 bytes each.
func HeaderSize(a Arch) int64 {
	n := int64(len(Cookie) + len(Version) + markerSize + valueSize)
	n += 3*4 + headerPadSize + reservedSize
	if a.Wide() {
		n += 2 * 4
	}
	return n
}

func dsDefSize() int64 {
	return dsDefNameSize + paramCount*valueSize
}

// rraDefSize covers cf_nam, row_cnt, pdp_cnt, the alignment padding and par.
func rraDefSize(a Arch) int64 {
	return rraDefNameSize + 2*int64(a.LongSize()) + rraDefAlignSize + paramCount*valueSize
}

func liveHeadSize(a Arch) int64 {
	return 2 * int64(a.LongSize())
}

// DataOffset is where rrd_value starts in a file with the given header.
func DataOffset(h Header, a Arch) int64 {
	ds := int64(h.DSCount)
	rra := int64(h.RRACount)
	n := HeaderSize(a)
	n += ds * dsDefSize()
	n += rra * rraDefSize(a)
	n += liveHeadSize(a)
	n += ds * pdpPrepSize
	n += rra * ds * paramCount * valueSize
	n += rra * int64(a.LongSize())
	return n
}

// FileSize is the total length of a file with the given header and row total.
func FileSize(h Header, a Arch, rows uint64) int64 {
	return DataOffset(h, a) + valueSize*int64(rows)*int64(h.DSCount)
}

// layout describes how long fields and padding move between a source and a
// destination layout. It only exists for src != dst.
type layout struct {
	src Arch
	dst Arch
}

func newLayout(src, dst Arch) (layout, error) {
	if src != ArchARMv6l && src != ArchX8664 {
		return layout{}, fmt.Errorf("%w: source %d", ErrUnknownArch, src)
	}
	if dst == ArchAuto {
		dst = src.Other()
	}
	if dst != ArchARMv6l && dst != ArchX8664 {
		return layout{}, fmt.Errorf("%w: target %d", ErrUnknownArch, dst)
	}
	if src == dst {
		return layout{}, &ArchMismatchError{Arch: src}
	}
	return layout{src: src, dst: dst}, nil
}

// long copies one long field and returns its low 32 bits. Widening writes the
// 4 value bytes followed by 4 zero bytes; narrowing keeps the low 4 bytes and
// drops the high 4.
func (l layout) long(r *reader, w *writer) (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	v := le.Uint32(b)
	if err := w.write(b); err != nil {
		return 0, err
	}
	if l.dst.Wide() {
		if err := w.writeZeros(4); err != nil {
			return 0, err
		}
	}
	if l.src.Wide() {
		if err := r.skip(4); err != nil {
			return 0, err
		}
	}
	return v, nil
}

// rraPadBefore is the padding between cf_nam and row_cnt.
func rraPadBefore(a Arch) int {
	if a.Wide() {
		return rraDefAlignSize
	}
	return 0
}

// rraPadAfter is the padding between pdp_cnt and par.
func rraPadAfter(a Arch) int {
	if a.Wide() {
		return 0
	}
	return rraDefAlignSize
}
