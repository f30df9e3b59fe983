package api

import (
	"sync"
	"time"

	"github.com/samcharles93/rrdarch/pkg/rrd"
)

const defaultHistory = 256

// ConversionRecord is the outcome of one POST /v1/convert.
type ConversionRecord struct {
	ID         string      `json:"id"`
	CreatedAt  int64       `json:"created_at"`
	Status     string      `json:"status"`
	Target     string      `json:"target,omitempty"`
	InputBytes int64       `json:"input_bytes"`
	Result     *rrd.Result `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ConversionStore keeps the most recent conversion records in memory.
// Converted files themselves are never retained.
type ConversionStore struct {
	mu      sync.Mutex
	limit   int
	order   []string
	records map[string]*ConversionRecord
}

func NewConversionStore(limit int) *ConversionStore {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &ConversionStore{
		limit:   limit,
		records: make(map[string]*ConversionRecord),
	}
}

func (s *ConversionStore) Put(rec ConversionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = &rec
	for len(s.order) > s.limit {
		delete(s.records, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ConversionStore) Get(id string) (ConversionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ConversionRecord{}, false
	}
	return *rec, true
}

func (s *ConversionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns records newest first.
func (s *ConversionStore) List() []ConversionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConversionRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.records[s.order[i]])
	}
	return out
}

func newRecord(id string, now time.Time, target string, size int) ConversionRecord {
	return ConversionRecord{
		ID:         id,
		CreatedAt:  now.Unix(),
		Status:     "completed",
		Target:     target,
		InputBytes: int64(size),
	}
}
