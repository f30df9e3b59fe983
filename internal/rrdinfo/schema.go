package rrdinfo

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/rrdarch/pkg/rrd"
)

// Schema is the part of an RRD file needed to recreate it.
type Schema struct {
	Filename    string   `json:"filename"`
	Step        string   `json:"step"`
	LastUpdate  string   `json:"last_update"`
	DataSources []Record `json:"ds"`
	Archives    []Record `json:"rra"`
}

// Record is one ds[...] or rra[...] block of the dump, keyed by field name.
type Record struct {
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

func (r Record) get(field string) string {
	return r.Fields[field]
}

var (
	dsLine  = regexp.MustCompile(`^ds\[(.*?)\]\.(.*?) = (.*)$`)
	rraLine = regexp.MustCompile(`^rra\[(\d+)\]\.([a-z_]+) = (.*)$`)
)

// Parse reads an "rrdtool info" dump. Data sources keep the order in which
// they first appear; archives are ordered by index.
func Parse(dump string) (*Schema, error) {
	s := &Schema{}
	var (
		dsIndex  = map[string]int{}
		rraIndex = map[int]int{}
		rraOrder []int
	)

	sc := bufio.NewScanner(strings.NewReader(dump))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "filename"):
			s.Filename = headerValue(line)
		case strings.HasPrefix(line, "step"):
			s.Step = headerValue(line)
		case strings.HasPrefix(line, "last_update"):
			s.LastUpdate = headerValue(line)
		case strings.HasPrefix(line, "ds["):
			m := dsLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			i, ok := dsIndex[m[1]]
			if !ok {
				i = len(s.DataSources)
				dsIndex[m[1]] = i
				s.DataSources = append(s.DataSources, Record{Key: m[1], Fields: map[string]string{}})
			}
			s.DataSources[i].Fields[m[2]] = unquote(m[3])
		case strings.HasPrefix(line, "rra["):
			m := rraLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			i, ok := rraIndex[n]
			if !ok {
				i = len(s.Archives)
				rraIndex[n] = i
				rraOrder = append(rraOrder, n)
				s.Archives = append(s.Archives, Record{Key: m[1], Fields: map[string]string{}})
			}
			s.Archives[i].Fields[m[2]] = unquote(m[3])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("rrdinfo: scan dump: %w", err)
	}

	if len(s.DataSources) == 0 {
		return nil, ErrNoDataSources
	}
	if len(s.Archives) == 0 {
		return nil, ErrNoArchives
	}
	slices.SortStableFunc(s.Archives, func(a, b Record) int {
		x, _ := strconv.Atoi(a.Key)
		y, _ := strconv.Atoi(b.Key)
		return x - y
	})
	return s, nil
}

func headerValue(line string) string {
	if i := strings.LastIndex(line, " = "); i >= 0 {
		line = line[i+3:]
	}
	return strings.Trim(line, `"`)
}

func unquote(v string) string {
	return strings.TrimSpace(strings.Trim(v, `"`))
}

// FromInfo builds the schema from the native decoder, with values formatted
// the way "rrdtool info" prints them.
func FromInfo(path string, info *rrd.Info) *Schema {
	s := &Schema{
		Filename:   path,
		Step:       strconv.FormatUint(uint64(info.Header.PDPStep), 10),
		LastUpdate: strconv.FormatInt(info.LastUpdate.Unix(), 10),
	}
	for _, ds := range info.DataSources {
		s.DataSources = append(s.DataSources, Record{Key: ds.Name, Fields: map[string]string{
			"type":              ds.Type,
			"minimal_heartbeat": strconv.FormatUint(uint64(ds.Heartbeat), 10),
			"min":               infoFloat(float64(ds.Min)),
			"max":               infoFloat(float64(ds.Max)),
			"last_ds":           ds.LastValue,
		}})
	}
	for i, a := range info.Archives {
		s.Archives = append(s.Archives, Record{Key: strconv.Itoa(i), Fields: map[string]string{
			"cf":          a.CF,
			"rows":        strconv.FormatUint(uint64(a.Rows), 10),
			"cur_row":     strconv.FormatUint(uint64(a.CurrentRow), 10),
			"pdp_per_row": strconv.FormatUint(uint64(a.PDPPerRow), 10),
			"xff":         infoFloat(float64(a.XFF)),
		}})
	}
	return s
}

func infoFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprintf("%.10e", f)
}

// CreateCommand renders the schema as an "rrdtool create" invocation, one
// definition per continuation line.
func (s *Schema) CreateCommand() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "rrdtool create %s --start %s --step %s \\\n", s.Filename, s.LastUpdate, s.Step)

	for _, ds := range s.DataSources {
		typ := ds.get("type")
		if typ == "COMPUTE" {
			fmt.Fprintf(&b, "             DS:%s:COMPUTE:%s \\\n", ds.Key, ds.get("cdef"))
			continue
		}
		lo, err := createFloat(ds.get("min"))
		if err != nil {
			return "", fmt.Errorf("rrdinfo: ds[%s].min: %w", ds.Key, err)
		}
		hi, err := createFloat(ds.get("max"))
		if err != nil {
			return "", fmt.Errorf("rrdinfo: ds[%s].max: %w", ds.Key, err)
		}
		fmt.Fprintf(&b, "             DS:%s:%s:%s:%s:%s \\\n", ds.Key, typ, ds.get("minimal_heartbeat"), lo, hi)
	}

	lines := make([]string, 0, len(s.Archives))
	for _, rra := range s.Archives {
		xff, err := strconv.ParseFloat(rra.get("xff"), 64)
		if err != nil {
			return "", fmt.Errorf("rrdinfo: rra[%s].xff: %w", rra.Key, err)
		}
		lines = append(lines, fmt.Sprintf("             RRA:%s:%.1f:%s:%s", rra.get("cf"), xff, rra.get("pdp_per_row"), rra.get("rows")))
	}
	b.WriteString(strings.Join(lines, " \\\n"))
	b.WriteByte('\n')
	return b.String(), nil
}

// createFloat prints a bound the way rrdtool create accepts it: U for
// unknown, otherwise the shortest decimal with a fractional part or an
// exponent.
func createFloat(v string) (string, error) {
	if v == "NaN" || v == "" {
		return "U", nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return "", err
	}
	return shortFloat(f), nil
}

func shortFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "U"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// WriteJSON encodes the schema with two-space indentation.
func (s *Schema) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
