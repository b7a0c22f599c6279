package txn

import (
	"fmt"

	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/cuemby/protobase/pkg/wal"
)

// Persistable is implemented by root-object values that decompose into
// more than one atom. persister.persistValue walks Children depth-first,
// leaves first, so every child has a concrete AtomPointer by the time
// Encode is asked to resolve it, matching spec §4.7 commit step 1.
// Values that don't implement Persistable are persisted as a single
// leaf atom (see persistLeaf).
//
// Implementations must be comparable so the persist walk can memoize
// by identity. The memo lives for one commit only: a value reached
// twice within that commit is written once, but nothing is reused
// from an earlier commit.
type Persistable interface {
	Children() []Persistable
	Encode(resolve func(Persistable) types.AtomPointer) map[string]any
}

// persister drives the depth-first, leaves-first atom walk described
// by spec §4.7 commit step 1, write-through-caching every atom it
// writes so it is warm on the first read after commit.
type persister struct {
	store *wal.AtomStore
	cache *cache.AtomCache
	memo  map[Persistable]types.AtomPointer
}

func newPersister(store *wal.AtomStore, c *cache.AtomCache) *persister {
	return &persister{store: store, cache: c, memo: make(map[Persistable]types.AtomPointer)}
}

func (p *persister) persistValue(val any) (types.AtomPointer, error) {
	pv, ok := val.(Persistable)
	if !ok {
		return p.persistLeaf(asAtomBody(val))
	}
	if ptr, done := p.memo[pv]; done {
		return ptr, nil
	}
	children := pv.Children()
	resolved := make(map[Persistable]types.AtomPointer, len(children))
	for _, child := range children {
		ptr, err := p.persistValue(child)
		if err != nil {
			return types.AtomPointer{}, fmt.Errorf("persist child atom: %w", err)
		}
		resolved[child] = ptr
	}
	body := pv.Encode(func(child Persistable) types.AtomPointer {
		return resolved[child]
	})
	ptr, err := p.persistLeaf(body)
	if err != nil {
		return types.AtomPointer{}, err
	}
	p.memo[pv] = ptr
	return ptr, nil
}

func (p *persister) persistLeaf(body map[string]any) (types.AtomPointer, error) {
	ptr, err := p.store.PushAtom(body, types.FormatMsgpack)
	if err != nil {
		return types.AtomPointer{}, fmt.Errorf("%w: push atom: %v", types.ErrIO, err)
	}
	p.cache.PutObject(ptr, body)
	return ptr, nil
}

// asAtomBody normalizes a plain (non-Persistable) staged value into
// the map[string]any shape every atom is stored as.
func asAtomBody(val any) map[string]any {
	if m, ok := val.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": val}
}
