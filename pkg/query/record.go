package query

import "github.com/cuemby/protobase/pkg/index"

// Record is one row flowing through a plan: a stable identity plus
// its field values. ID is whatever the Source uses as a record
// identity — often an AtomPointer, sometimes an application key.
type Record struct {
	ID     any
	Fields map[string]any
}

// Source is the collection a query runs over. Implementations adapt
// pkg/collection's persistent structures (or any higher-level table
// built on them) to the surface the query engine needs.
type Source interface {
	// Len reports the total record count, used for ListPlan sizing and
	// cost estimates.
	Len() int
	// AsIterable calls visit for every record in the source's defined
	// order, stopping early if visit returns false.
	AsIterable(visit func(Record) bool)
	// GetAt resolves a single record by id, as returned by an indexed
	// plan's reference set.
	GetAt(id any) (Record, bool)
	// Indexes returns the source's index registry, or nil if it has
	// none.
	Indexes() *index.Registry
	// FieldIndex returns the name of the index covering field, if the
	// source exposes one, per spec §4.6's "exposed field→index map".
	FieldIndex(field string) (indexName string, ok bool)
}

// Stream is a pull iterator over query results, matching spec §4.6's
// "iterators with execute() -> stream<record>".
type Stream interface {
	// Next returns the next record, or ok=false once exhausted.
	Next() (Record, bool, error)
	Close() error
}

// sliceStream is a Stream over an already-materialized slice, the
// common case once a plan has collected its output.
type sliceStream struct {
	records []Record
	i       int
}

func newSliceStream(records []Record) *sliceStream {
	return &sliceStream{records: records}
}

func (s *sliceStream) Next() (Record, bool, error) {
	if s.i >= len(s.records) {
		return Record{}, false, nil
	}
	r := s.records[s.i]
	s.i++
	return r, true, nil
}

func (s *sliceStream) Close() error { return nil }

// drain materializes every record remaining in s.
func drain(s Stream) ([]Record, error) {
	var out []Record
	for {
		r, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, r)
	}
}
