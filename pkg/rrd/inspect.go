package rrd

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"
)

// Value is a stored double. NaN and infinities encode as JSON null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// IsUnknown reports whether v is rrdtool's "unknown" marker.
func (v Value) IsUnknown() bool {
	return math.IsNaN(float64(v))
}

type DataSource struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Heartbeat uint32 `json:"minimal_heartbeat"`
	Min       Value  `json:"min"`
	Max       Value  `json:"max"`
	LastValue string `json:"last_ds"`
}

type Archive struct {
	CF         string `json:"cf"`
	Rows       uint32 `json:"rows"`
	PDPPerRow  uint32 `json:"pdp_per_row"`
	XFF        Value  `json:"xff"`
	CurrentRow uint32 `json:"cur_row"`
}

// maxPrealloc bounds the capacity reserved from header counts, which are
// untrusted until the records behind them have been read.
const maxPrealloc = 1024

// Info is the schema of an RRD file decoded without rrdtool.
type Info struct {
	Arch          Arch         `json:"arch"`
	Header        Header       `json:"header"`
	LastUpdate    time.Time    `json:"last_update"`
	DataSources   []DataSource `json:"data_sources"`
	Archives      []Archive    `json:"archives"`
	Rows          uint64       `json:"rows"`
	DataOffset    int64        `json:"data_offset"`
	FileSize      int64        `json:"file_size"`
	ActualSize    int64        `json:"actual_size"`
	TrailingBytes int64        `json:"trailing_bytes"`
}

// Inspect decodes the definitions of the RRD file at path.
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rrd: open: %w", err)
	}
	defer f.Close()
	return InspectReader(f)
}

// InspectReader decodes the definitions from r and reads it to the end to
// verify the data region is complete.
func InspectReader(src io.Reader) (*Info, error) {
	r := newReader(src)
	h, arch, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	info := &Info{Arch: arch, Header: h}

	r.region = "DS DEF"
	info.DataSources = make([]DataSource, 0, min(h.DSCount, maxPrealloc))
	for range h.DSCount {
		var ds DataSource
		var names [dsDefNameSize]byte
		if err := r.readFull(names[:]); err != nil {
			return nil, err
		}
		ds.Name = cstring(names[:dsDefNameSize/2])
		ds.Type = cstring(names[dsDefNameSize/2:])
		hb, err := r.readU64()
		if err != nil {
			return nil, err
		}
		ds.Heartbeat = uint32(hb)
		minV, err := r.readF64()
		if err != nil {
			return nil, err
		}
		maxV, err := r.readF64()
		if err != nil {
			return nil, err
		}
		ds.Min, ds.Max = Value(minV), Value(maxV)
		if err := r.skip((paramCount - 3) * valueSize); err != nil {
			return nil, err
		}
		info.DataSources = append(info.DataSources, ds)
	}

	r.region = "RRA DEF"
	info.Archives = make([]Archive, 0, min(h.RRACount, maxPrealloc))
	for range h.RRACount {
		var a Archive
		var cf [rraDefNameSize]byte
		if err := r.readFull(cf[:]); err != nil {
			return nil, err
		}
		a.CF = cstring(cf[:])
		if err := r.skip(int64(rraPadBefore(arch))); err != nil {
			return nil, err
		}
		if a.Rows, err = r.readLong(arch); err != nil {
			return nil, err
		}
		if a.PDPPerRow, err = r.readLong(arch); err != nil {
			return nil, err
		}
		if err := r.skip(int64(rraPadAfter(arch))); err != nil {
			return nil, err
		}
		xff, err := r.readF64()
		if err != nil {
			return nil, err
		}
		a.XFF = Value(xff)
		if err := r.skip((paramCount - 1) * valueSize); err != nil {
			return nil, err
		}
		info.Rows += uint64(a.Rows)
		info.Archives = append(info.Archives, a)
	}

	r.region = "LIVE HEAD"
	sec, err := r.readLong(arch)
	if err != nil {
		return nil, err
	}
	usec, err := r.readLong(arch)
	if err != nil {
		return nil, err
	}
	info.LastUpdate = time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).UTC()

	r.region = "PDP PREP"
	for i := range info.DataSources {
		var prep [pdpPrepSize]byte
		if err := r.readFull(prep[:]); err != nil {
			return nil, err
		}
		info.DataSources[i].LastValue = cstring(prep[:lastDSSize])
	}

	r.region = "CDP PREP"
	if err := r.skip(int64(h.RRACount) * int64(h.DSCount) * paramCount * valueSize); err != nil {
		return nil, err
	}

	r.region = "RRA PTR"
	for i := range info.Archives {
		if info.Archives[i].CurrentRow, err = r.readLong(arch); err != nil {
			return nil, err
		}
	}
	info.DataOffset = r.off

	r.region = "DATA"
	if err := r.skip(valueSize * int64(info.Rows) * int64(h.DSCount)); err != nil {
		return nil, err
	}
	info.FileSize = FileSize(h, arch, info.Rows)
	if info.TrailingBytes, err = r.drain(); err != nil {
		return nil, err
	}
	info.ActualSize = r.off
	return info, nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
