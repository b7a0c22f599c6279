package index

// Emission is one (index_name, key) pair an extractor produces for a
// given record, letting a single definition fan a record out across
// several indexes at once (spec §4.5's "iterable of (index_name, key)
// pairs" extractor shape).
type Emission struct {
	Index string
	Key   any
}

// Definition binds a name to an extractor function that computes the
// key(s) a record should be filed under. Use NewSingleKey/NewMultiKey
// for the common single-index cases; use NewFanout when one extractor
// needs to populate multiple named indexes from one record.
type Definition struct {
	Name      string
	extractor func(record any) []Emission
}

// NewSingleKey builds a Definition whose extractor produces exactly
// one key per record (e.g. a field-equality index). When fn returns
// ok=false the record is not filed under this index.
func NewSingleKey(name string, fn func(record any) (key any, ok bool)) Definition {
	return Definition{
		Name: name,
		extractor: func(record any) []Emission {
			key, ok := fn(record)
			if !ok {
				return nil
			}
			return []Emission{{Index: name, Key: key}}
		},
	}
}

// NewMultiKey builds a Definition whose extractor produces zero or
// more keys under the same named index for one record (e.g. a
// tags-array index).
func NewMultiKey(name string, fn func(record any) []any) Definition {
	return Definition{
		Name: name,
		extractor: func(record any) []Emission {
			keys := fn(record)
			out := make([]Emission, 0, len(keys))
			for _, k := range keys {
				out = append(out, Emission{Index: name, Key: k})
			}
			return out
		},
	}
}

// NewFanout builds a Definition whose extractor names the target
// index per emission, for composite extractors that populate several
// indexes from a single record in one pass.
func NewFanout(name string, fn func(record any) []Emission) Definition {
	return Definition{Name: name, extractor: fn}
}

// Extract runs the definition's extractor over record.
func (d Definition) Extract(record any) []Emission {
	if d.extractor == nil {
		return nil
	}
	return d.extractor(record)
}
