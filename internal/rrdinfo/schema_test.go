package rrdinfo

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/samcharles93/rrdarch/pkg/rrd"
)

const sampleDump = `filename = "temp.rrd"
rrd_version = "0003"
step = 300
last_update = 1700000000
header_size = 2152
ds[temp].index = 0
ds[temp].type = "GAUGE"
ds[temp].minimal_heartbeat = 600
ds[temp].min = NaN
ds[temp].max = 1.0000000000e+02
ds[temp].last_ds = "21.5"
ds[hum].index = 1
ds[hum].type = "GAUGE"
ds[hum].minimal_heartbeat = 600
ds[hum].min = 0.0000000000e+00
ds[hum].max = 1.0000000000e+20
ds[total].index = 2
ds[total].type = "COMPUTE"
ds[total].cdef = "temp,hum,+"
rra[0].cf = "AVERAGE"
rra[0].rows = 600
rra[0].cur_row = 17
rra[0].pdp_per_row = 1
rra[0].xff = 5.0000000000e-01
rra[0].cdp_prep[0].value = NaN
rra[10].cf = "MAX"
rra[10].rows = 797
rra[10].pdp_per_row = 288
rra[10].xff = 5.0000000000e-01
rra[2].cf = "MIN"
rra[2].rows = 700
rra[2].pdp_per_row = 6
rra[2].xff = 0.0000000000e+00
`

const sampleCreate = `rrdtool create temp.rrd --start 1700000000 --step 300 \
             DS:temp:GAUGE:600:U:100.0 \
             DS:hum:GAUGE:600:0.0:1e+20 \
             DS:total:COMPUTE:temp,hum,+ \
             RRA:AVERAGE:0.5:1:600 \
             RRA:MIN:0.0:6:700 \
             RRA:MAX:0.5:288:797
`

type fakeRunner struct {
	out  string
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.args = append([]string{name}, args...)
	return []byte(f.out), f.err
}

func TestDump(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: sampleDump}
	got, err := Dump(context.Background(), r, "", "temp.rrd")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if got != sampleDump {
		t.Fatalf("dump output mismatch")
	}
	if want := "rrdtool info temp.rrd"; strings.Join(r.args, " ") != want {
		t.Fatalf("command mismatch: got %q want %q", strings.Join(r.args, " "), want)
	}
}

func TestDumpRejectsForeignOutput(t *testing.T) {
	t.Parallel()

	_, err := Dump(context.Background(), &fakeRunner{out: "ERROR: not an rrd"}, "/usr/bin/rrdtool", "x")
	if !errors.Is(err, ErrNotRRD) {
		t.Fatalf("expected ErrNotRRD, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := Dump(context.Background(), &fakeRunner{err: boom}, "", "x"); !errors.Is(err, boom) {
		t.Fatalf("expected runner error, got %v", err)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	s, err := Parse(sampleDump)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Filename != "temp.rrd" || s.Step != "300" || s.LastUpdate != "1700000000" {
		t.Fatalf("header mismatch: %+v", s)
	}

	var names []string
	for _, ds := range s.DataSources {
		names = append(names, ds.Key)
	}
	if got := strings.Join(names, ","); got != "temp,hum,total" {
		t.Fatalf("ds order mismatch: got %s", got)
	}
	if got := s.DataSources[0].Fields["last_ds"]; got != "21.5" {
		t.Fatalf("last_ds mismatch: got %q", got)
	}

	var keys []string
	for _, rra := range s.Archives {
		keys = append(keys, rra.Key)
	}
	if got := strings.Join(keys, ","); got != "0,2,10" {
		t.Fatalf("rra order mismatch: got %s", got)
	}
	if _, ok := s.Archives[0].Fields["cdp_prep"]; ok {
		t.Fatalf("nested cdp_prep line should be ignored")
	}
}

func TestParseMissingSections(t *testing.T) {
	t.Parallel()

	if _, err := Parse("step = 300\nrra[0].cf = \"AVERAGE\"\n"); !errors.Is(err, ErrNoDataSources) {
		t.Fatalf("expected ErrNoDataSources, got %v", err)
	}
	if _, err := Parse("step = 300\nds[a].type = \"GAUGE\"\n"); !errors.Is(err, ErrNoArchives) {
		t.Fatalf("expected ErrNoArchives, got %v", err)
	}
}

func TestCreateCommand(t *testing.T) {
	t.Parallel()

	s, err := Parse(sampleDump)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := s.CreateCommand()
	if err != nil {
		t.Fatalf("create command: %v", err)
	}
	if got != sampleCreate {
		t.Fatalf("create command mismatch:\ngot:\n%s\nwant:\n%s", got, sampleCreate)
	}
}

func TestShortFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{100, "100.0"},
		{-3.25, "-3.25"},
		{1e-5, "1e-05"},
		{0.0001, "0.0001"},
		{1e16, "1e+16"},
		{123456789012345, "123456789012345.0"},
	}
	for _, tc := range tests {
		if got := shortFloat(tc.in); got != tc.want {
			t.Errorf("shortFloat(%v): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromInfo(t *testing.T) {
	t.Parallel()

	info := &rrd.Info{
		Header:     rrd.Header{DSCount: 1, RRACount: 1, PDPStep: 60},
		LastUpdate: time.Unix(1700000000, 0),
		DataSources: []rrd.DataSource{
			{Name: "load", Type: "GAUGE", Heartbeat: 120, Min: rrd.Value(math.NaN()), Max: 10},
		},
		Archives: []rrd.Archive{
			{CF: "AVERAGE", Rows: 1440, PDPPerRow: 1, XFF: 0.5, CurrentRow: 3},
		},
	}
	s := FromInfo("load.rrd", info)
	got, err := s.CreateCommand()
	if err != nil {
		t.Fatalf("create command: %v", err)
	}
	want := "rrdtool create load.rrd --start 1700000000 --step 60 \\\n" +
		"             DS:load:GAUGE:120:U:10.0 \\\n" +
		"             RRA:AVERAGE:0.5:1:1440\n"
	if got != want {
		t.Fatalf("create command mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if v := s.DataSources[0].Fields["max"]; v != "1.0000000000e+01" {
		t.Fatalf("max formatting: got %q", v)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	s, err := Parse(sampleDump)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var back Schema
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.DataSources) != 3 || back.Archives[2].Fields["cf"] != "MAX" {
		t.Fatalf("json content mismatch: %s", buf.String())
	}
}
