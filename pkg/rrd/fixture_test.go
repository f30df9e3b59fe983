package rrd

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// fixture describes a synthetic RRD file. Every byte is produced here from
// the documented layout so the converter is checked against an independent
// encoding.
type fixture struct {
	arch     Arch
	filler   byte   // written to padding and reserved bytes
	nan      uint64 // unknown-value pattern
	ds       int
	rows     []uint32 // one entry per archive
	step     uint32
	trailing int
}

var floatCookieBytes = []byte{0x2f, 0x25, 0xc0, 0xc7, 0x43, 0x2b, 0x1f, 0x5b}

// nonCanonicalNaN must never be rewritten.
const nonCanonicalNaN uint64 = 0x7ff8000000000001

func headerBytes(arch Arch, ds, rra, step uint32, filler byte) []byte {
	var b bytes.Buffer
	b.WriteString("RRD\x00")
	b.WriteString("0003\x00")
	b.Write(make([]byte, 7))
	b.Write(floatCookieBytes)
	putU32(&b, ds)
	if arch == ArchX8664 {
		b.Write(make([]byte, 4))
	}
	putU32(&b, rra)
	if arch == ArchX8664 {
		b.Write(make([]byte, 4))
	}
	putU32(&b, step)
	b.Write(bytes.Repeat([]byte{filler}, 4+80))
	return b.Bytes()
}

func (f fixture) build(t testing.TB) []byte {
	t.Helper()
	step := f.step
	if step == 0 {
		step = 300
	}
	var b bytes.Buffer
	b.Write(headerBytes(f.arch, uint32(f.ds), uint32(len(f.rows)), step, f.filler))

	for d := range f.ds {
		name := make([]byte, 20)
		copy(name, []byte{'d', 's', byte('0' + d)})
		dst := make([]byte, 20)
		copy(dst, "GAUGE")
		b.Write(name)
		b.Write(dst)
		putU64(&b, 600) // heartbeat in the low half of the union
		putU64(&b, f.nan)
		putF64(&b, 100)
		for range 7 {
			putU64(&b, 0)
		}
	}

	for _, rows := range f.rows {
		cf := make([]byte, 20)
		copy(cf, "AVERAGE")
		b.Write(cf)
		if f.arch == ArchX8664 {
			b.Write(bytes.Repeat([]byte{f.filler}, 4))
		}
		putLong(&b, f.arch, rows)
		putLong(&b, f.arch, 1)
		if f.arch == ArchARMv6l {
			b.Write(bytes.Repeat([]byte{f.filler}, 4))
		}
		putF64(&b, 0.5)
		for range 9 {
			putU64(&b, 0)
		}
	}

	putLong(&b, f.arch, 1700000000)
	putLong(&b, f.arch, 250000)

	for d := range f.ds {
		prep := make([]byte, 112)
		for i := range prep {
			prep[i] = byte((i + d) % 251)
		}
		copy(prep, make([]byte, 30))
		copy(prep, "12.5")
		b.Write(prep)
	}

	for k := range len(f.rows) * f.ds * 10 {
		switch {
		case k%4 == 0:
			putU64(&b, f.nan)
		case k == 5:
			putU64(&b, nonCanonicalNaN)
		default:
			putF64(&b, float64(k))
		}
	}

	for _, rows := range f.rows {
		putLong(&b, f.arch, rows-1)
	}

	for _, rows := range f.rows {
		for r := range int(rows) {
			for d := range f.ds {
				if (r+d)%3 == 0 {
					putU64(&b, f.nan)
				} else {
					putF64(&b, float64(r*10+d)+0.5)
				}
			}
		}
	}

	b.Write(bytes.Repeat([]byte{0xEE}, f.trailing))
	return b.Bytes()
}

func (f fixture) nanCount() int {
	n := 0
	n += f.ds // ds min
	n += (len(f.rows)*f.ds*10 + 3) / 4
	for _, rows := range f.rows {
		for r := range int(rows) {
			for d := range f.ds {
				if (r+d)%3 == 0 {
					n++
				}
			}
		}
	}
	return n
}

func putU32(b *bytes.Buffer, v uint32) {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], v)
	b.Write(p[:])
}

func putU64(b *bytes.Buffer, v uint64) {
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], v)
	b.Write(p[:])
}

func putF64(b *bytes.Buffer, v float64) {
	putU64(b, math.Float64bits(v))
}

func putLong(b *bytes.Buffer, arch Arch, v uint32) {
	putU32(b, v)
	if arch == ArchX8664 {
		b.Write(make([]byte, 4))
	}
}

func narrowFixture(filler byte) fixture {
	return fixture{arch: ArchARMv6l, filler: filler, nan: NaNARMv6l, ds: 2, rows: []uint32{10, 4}}
}

func wideFixture(filler byte) fixture {
	return fixture{arch: ArchX8664, filler: filler, nan: NaNX8664, ds: 2, rows: []uint32{10, 4}}
}
