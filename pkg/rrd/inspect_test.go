package rrd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	for _, fx := range []fixture{narrowFixture(0x33), wideFixture(0x33)} {
		path := filepath.Join(t.TempDir(), fx.arch.String()+".rrd")
		data := fx.build(t)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		info, err := Inspect(path)
		if err != nil {
			t.Fatalf("%s: inspect: %v", fx.arch, err)
		}
		if info.Arch != fx.arch {
			t.Fatalf("arch mismatch: got %s want %s", info.Arch, fx.arch)
		}
		if info.Header.PDPStep != 300 {
			t.Fatalf("step mismatch: got %d want %d", info.Header.PDPStep, 300)
		}
		if want := time.Unix(1700000000, 250000*int64(time.Microsecond)).UTC(); !info.LastUpdate.Equal(want) {
			t.Fatalf("last update mismatch: got %v want %v", info.LastUpdate, want)
		}
		if len(info.DataSources) != 2 {
			t.Fatalf("data source count: got %d want %d", len(info.DataSources), 2)
		}
		ds := info.DataSources[1]
		if ds.Name != "ds1" || ds.Type != "GAUGE" || ds.Heartbeat != 600 {
			t.Fatalf("data source mismatch: %+v", ds)
		}
		if !ds.Min.IsUnknown() || float64(ds.Max) != 100 {
			t.Fatalf("min/max mismatch: %v %v", ds.Min, ds.Max)
		}
		if ds.LastValue != "12.5" {
			t.Fatalf("last ds mismatch: got %q", ds.LastValue)
		}
		if len(info.Archives) != 2 {
			t.Fatalf("archive count: got %d want %d", len(info.Archives), 2)
		}
		a := info.Archives[0]
		if a.CF != "AVERAGE" || a.Rows != 10 || a.PDPPerRow != 1 || float64(a.XFF) != 0.5 || a.CurrentRow != 9 {
			t.Fatalf("archive mismatch: %+v", a)
		}
		if info.Rows != 14 {
			t.Fatalf("rows mismatch: got %d want %d", info.Rows, 14)
		}
		if info.FileSize != int64(len(data)) || info.ActualSize != int64(len(data)) {
			t.Fatalf("size mismatch: predicted %d actual %d want %d", info.FileSize, info.ActualSize, len(data))
		}
	}
}

func TestInspectReportsTrailingBytes(t *testing.T) {
	t.Parallel()

	fx := narrowFixture(0)
	fx.trailing = 16
	info, err := InspectReader(bytes.NewReader(fx.build(t)))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.TrailingBytes != 16 {
		t.Fatalf("trailing bytes: got %d want %d", info.TrailingBytes, 16)
	}
	if info.ActualSize != info.FileSize+16 {
		t.Fatalf("actual size: got %d want %d", info.ActualSize, info.FileSize+16)
	}
}

func TestValueMarshalJSONUnknown(t *testing.T) {
	t.Parallel()

	got, err := json.Marshal(DataSource{Name: "x", Min: Value(nanValue()), Max: 1.5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"x","type":"","minimal_heartbeat":0,"min":null,"max":1.5,"last_ds":""}`
	if string(got) != want {
		t.Fatalf("json mismatch:\ngot  %s\nwant %s", got, want)
	}
}

func nanValue() float64 {
	var b bytes.Buffer
	putU64(&b, NaNX8664)
	v, _ := newReader(&b).readF64()
	return v
}

func TestInspectHugeCountsInHeaderOnlyFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		arch   Arch
		ds     uint32
		rra    uint32
		region string
	}{
		{"data sources", ArchARMv6l, 0xFFFFFFFF, 1, "DS DEF"},
		{"archives", ArchX8664, 1, 0xFFFFFFFF, "DS DEF"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := InspectReader(bytes.NewReader(headerBytes(tc.arch, tc.ds, tc.rra, 300, 0)))
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) || fe.Field != tc.region {
				t.Fatalf("field mismatch: got %v want %s", err, tc.region)
			}
		})
	}
}

func TestInspectHugeArchiveCountAfterDefinitions(t *testing.T) {
	t.Parallel()

	fx := narrowFixture(0)
	data := fx.build(t)
	// Rewrite rra_cnt so the two real archive definitions are followed by
	// far more than the file holds.
	le.PutUint32(data[28:], 0xFFFFFFFF)
	_, err := InspectReader(bytes.NewReader(data))
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Field != "RRA DEF" {
		t.Fatalf("expected RRA DEF format error, got %v", err)
	}
}
