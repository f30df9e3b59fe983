// Package rrd rewrites RRD (round robin database) files between the byte
// layouts used by 32-bit ARM (armv6l) and 64-bit x86 (x86_64) builds of
// rrdtool.
//
// rrdtool writes its in-memory structures to disk as-is, so a file carries the
// structure padding, C long width and default NaN pattern of the machine that
// created it. Both layouts are little-endian and share field order; they differ
// only in:
//
//   - long fields: 4 bytes on armv6l, 8 bytes on x86_64 (zero-extended);
//   - padding: x86_64 pads the header counts and the archive definition before
//     row_cnt, armv6l pads the archive definition after pdp_cnt;
//   - the "no data" NaN: 0x7ff8000000000000 on armv6l, 0xfff8000000000000 on
//     x86_64.
//
// File layout (format version 0003), in order:
//
//	stat_head   header, 120 (armv6l) or 128 (x86_64) bytes
//	ds_def      ds_cnt x 120
//	rra_def     rra_cnt x 112 (armv6l) or 120 (x86_64)
//	live_head   2 longs
//	pdp_prep    ds_cnt x 112
//	cdp_prep    rra_cnt x ds_cnt x 80
//	rra_ptr     rra_cnt longs
//	rrd_value   sum(row_cnt) x ds_cnt doubles, row-major
//
// A conversion is a single forward pass over a source stream producing a new
// destination stream. Files are never modified in place.
package rrd

// Format literals must never change.
const (
	// Cookie opens every RRD file. It is encoded as "RRD\0".
	Cookie = "RRD\x00"

	// Version is the only on-disk format version handled here.
	Version = "0003\x00"

	// FloatCookie is stored after the version to detect byte order and
	// floating point representation.
	FloatCookie = 8.642135e+130
)

const (
	markerSize      = 7  // zero bytes aligning float_cookie to 8
	reservedSize    = 80 // stat_head par[10], unused
	dsDefNameSize   = 40 // ds_nam[20] + dst[20]
	rraDefNameSize  = 20 // cf_nam[20]
	paramCount      = 10 // unival par[10] in ds_def, rra_def and cdp_prep
	pdpPrepSize     = 112
	lastDSSize      = 30 // pdp_prep last_ds[30]
	valueSize       = 8
	headerPadSize   = 4
	rraDefAlignSize = 4
)
