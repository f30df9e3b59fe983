package rrd

// Default quiet NaN written by rrdtool for unknown values.
const (
	NaNARMv6l uint64 = 0x7ff8000000000000
	NaNX8664  uint64 = 0xfff8000000000000
)

// SwapNaN exchanges the two architectures' NaN patterns and reports whether
// it did. Every other bit pattern, including other NaNs, passes through.
// Applying it twice yields the input.
func SwapNaN(bits uint64) (uint64, bool) {
	switch bits {
	case NaNARMv6l:
		return NaNX8664, true
	case NaNX8664:
		return NaNARMv6l, true
	default:
		return bits, false
	}
}

// swapValues canonicalizes every 8-byte value in p in place and returns the
// number of values changed. len(p) must be a multiple of 8.
func swapValues(p []byte) int {
	n := 0
	for i := 0; i+valueSize <= len(p); i += valueSize {
		if v, ok := SwapNaN(le.Uint64(p[i:])); ok {
			le.PutUint64(p[i:], v)
			n++
		}
	}
	return n
}
