package txn

import (
	"github.com/cuemby/protobase/pkg/collection"
	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/query"
)

// CollectionSource adapts a committed *collection.Dictionary root
// object (record id -> field map) plus its *index.Registry into
// query.Source, the production counterpart to pkg/query's test-only
// in-memory source: both a transaction's GetRootObject("table") and
// GetRootObject("table_indexes") resolve to exactly these two types.
type CollectionSource struct {
	dict       *collection.Dictionary
	registry   *index.Registry
	fieldIndex map[string]string
}

// NewCollectionSource builds a CollectionSource over dict and
// registry. A nil registry makes every plan fall back to a linear
// scan, since query.Optimize only picks an indexed plan when Indexes
// and FieldIndex both resolve. fieldIndex names, for each indexed
// field, which index registry holds its entries under; that mapping
// is a schema decision the caller makes when defining indexes, not
// something derivable from the committed data alone.
func NewCollectionSource(dict *collection.Dictionary, registry *index.Registry, fieldIndex map[string]string) *CollectionSource {
	return &CollectionSource{dict: dict, registry: registry, fieldIndex: fieldIndex}
}

func (s *CollectionSource) Len() int {
	if s.dict == nil {
		return 0
	}
	return s.dict.Count()
}

func (s *CollectionSource) AsIterable(visit func(query.Record) bool) {
	if s.dict == nil {
		return
	}
	s.dict.AsIterable(func(key string, value any) bool {
		fields, _ := value.(map[string]any)
		return visit(query.Record{ID: key, Fields: fields})
	})
}

func (s *CollectionSource) GetAt(id any) (query.Record, bool) {
	if s.dict == nil {
		return query.Record{}, false
	}
	key, ok := id.(string)
	if !ok {
		return query.Record{}, false
	}
	value, ok := s.dict.GetAt(key)
	if !ok {
		return query.Record{}, false
	}
	fields, _ := value.(map[string]any)
	return query.Record{ID: key, Fields: fields}, true
}

func (s *CollectionSource) Indexes() *index.Registry { return s.registry }

func (s *CollectionSource) FieldIndex(field string) (string, bool) {
	name, ok := s.fieldIndex[field]
	return name, ok
}
