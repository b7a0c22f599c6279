package query

import "github.com/cuemby/protobase/pkg/index"

// memSource is a minimal, test-only Source backed by a plain slice and
// an index.Registry, standing in for a real pkg/collection-backed
// table.
type memSource struct {
	records    []Record
	byID       map[any]Record
	registry   *index.Registry
	fieldIndex map[string]string
}

func newMemSource(records []Record, fieldIndex map[string]string) *memSource {
	s := &memSource{
		records:    records,
		byID:       make(map[any]Record, len(records)),
		registry:   index.NewRegistry(),
		fieldIndex: fieldIndex,
	}
	for _, r := range records {
		s.byID[r.ID] = r
	}
	for field, idxName := range fieldIndex {
		for _, r := range records {
			if v, ok := resolveField(r.Fields, field); ok {
				s.registry = s.registry.Add(idxName, v, r.ID)
			}
		}
	}
	return s
}

func (s *memSource) Len() int { return len(s.records) }

func (s *memSource) AsIterable(visit func(Record) bool) {
	for _, r := range s.records {
		if !visit(r) {
			return
		}
	}
}

func (s *memSource) GetAt(id any) (Record, bool) {
	r, ok := s.byID[id]
	return r, ok
}

func (s *memSource) Indexes() *index.Registry { return s.registry }

func (s *memSource) FieldIndex(field string) (string, bool) {
	name, ok := s.fieldIndex[field]
	return name, ok
}
