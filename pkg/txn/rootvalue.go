package txn

import (
	"github.com/cuemby/protobase/pkg/collection"
	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/types"
)

// The adapters below let the four persistent collections and an
// index.Registry sit as named root objects (spec §4.4's collection
// types, §4.5's index registry). Each flattens its own fields into one
// leaf atom; a root built from pkg/collection's AVL core stays a
// process-local, structurally-shared tree, and only a changed root's
// materialized snapshot crosses into durable storage on commit.
// RegistryValue is the exception: it decomposes into one atom per
// named index plus a parent atom that points at them. Each commit of a
// registry writes every index's atom again; atoms from earlier commits
// are not reused.

// ListValue adapts a *collection.List as a stageable root object.
type ListValue struct {
	List *collection.List
}

func (v *ListValue) Children() []Persistable { return nil }

func (v *ListValue) Encode(func(Persistable) types.AtomPointer) map[string]any {
	return map[string]any{"kind": "list", "items": v.List.AsSlice()}
}

// DictionaryValue adapts a *collection.Dictionary.
type DictionaryValue struct {
	Dictionary *collection.Dictionary
}

func (v *DictionaryValue) Children() []Persistable { return nil }

func (v *DictionaryValue) Encode(func(Persistable) types.AtomPointer) map[string]any {
	entries := make(map[string]any)
	v.Dictionary.AsIterable(func(k string, val any) bool {
		entries[k] = val
		return true
	})
	return map[string]any{"kind": "dictionary", "entries": entries}
}

// SetValue adapts a *collection.Set.
type SetValue struct {
	Set *collection.Set
}

func (v *SetValue) Children() []Persistable { return nil }

func (v *SetValue) Encode(func(Persistable) types.AtomPointer) map[string]any {
	return map[string]any{"kind": "set", "members": v.Set.AsSlice()}
}

// RepeatedKeysValue adapts a *collection.RepeatedKeysDictionary.
type RepeatedKeysValue struct {
	Dictionary *collection.RepeatedKeysDictionary
}

func (v *RepeatedKeysValue) Children() []Persistable { return nil }

func (v *RepeatedKeysValue) Encode(func(Persistable) types.AtomPointer) map[string]any {
	buckets := make(map[string]any)
	v.Dictionary.AsIterable(func(k string, set *collection.Set) bool {
		buckets[k] = set.AsSlice()
		return true
	})
	return map[string]any{"kind": "repeated_keys", "buckets": buckets}
}

// indexValue is one named index within a RegistryValue, persisted as
// its own leaf atom.
type indexValue struct {
	registry *index.Registry
	name     string
}

func (v *indexValue) Children() []Persistable { return nil }

func (v *indexValue) Encode(func(Persistable) types.AtomPointer) map[string]any {
	keys := v.registry.Keys(v.name)
	entries := make([]any, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, map[string]any{
			"key": k,
			"ids": v.registry.Get(v.name, k).AsSlice(),
		})
	}
	return map[string]any{"kind": "index", "name": v.name, "entries": entries}
}

// RegistryValue adapts an *index.Registry as a stageable root object,
// decomposing depth-first into one child atom per named index.
type RegistryValue struct {
	registry *index.Registry
	children []*indexValue
}

// NewRegistryValue snapshots r's current index names into a fixed set
// of child adapters shared between Children and Encode, so the persist
// walk's identity-keyed memo resolves them correctly.
func NewRegistryValue(r *index.Registry) *RegistryValue {
	names := r.IndexNames()
	children := make([]*indexValue, len(names))
	for i, name := range names {
		children[i] = &indexValue{registry: r, name: name}
	}
	return &RegistryValue{registry: r, children: children}
}

func (v *RegistryValue) Children() []Persistable {
	out := make([]Persistable, len(v.children))
	for i, c := range v.children {
		out[i] = c
	}
	return out
}

func (v *RegistryValue) Encode(resolve func(Persistable) types.AtomPointer) map[string]any {
	indexes := make(map[string]any, len(v.children))
	for _, c := range v.children {
		indexes[c.name] = resolve(c).Encode()
	}
	return map[string]any{"kind": "index_registry", "indexes": indexes}
}
