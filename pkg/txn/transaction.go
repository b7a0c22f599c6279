package txn

import (
	"fmt"
	"sync"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/google/uuid"
)

type txnState int

const (
	stateOpen txnState = iota
	stateCommitted
	stateAborted
)

// Transaction is a snapshot-isolated unit of work against the root
// namespace, per spec §4.7. Reads resolve through the snapshot taken
// at Begin unless this transaction has staged a newer value locally;
// writes stage into a local draft, invisible to every other
// transaction, until Manager.Commit publishes them.
type Transaction struct {
	id            uuid.UUID
	manager       *Manager
	snapshot      types.AtomPointer
	hasSnapshot   bool
	snapshotRoots map[string]types.AtomPointer

	mu     sync.Mutex
	drafts map[string]any
	state  txnState
}

// ID returns the transaction's identity. Manager.Commit tags the
// root-history atom it produces with this id.
func (t *Transaction) ID() uuid.UUID { return t.id }

// GetRootObject resolves name: a local draft shadows the snapshot.
// Committed values decode back into their original collection type
// where the root was staged via one of the pkg/collection/pkg/index
// adapters in rootvalue.go; any other shape is returned as its raw
// atom body.
func (t *Transaction) GetRootObject(name string) (any, bool, error) {
	t.mu.Lock()
	if t.state != stateOpen {
		t.mu.Unlock()
		return nil, false, fmt.Errorf("%w: transaction is not open", types.ErrClosed)
	}
	if val, ok := t.drafts[name]; ok {
		t.mu.Unlock()
		return val, true, nil
	}
	t.mu.Unlock()

	ptr, ok := t.snapshotRoots[name]
	if !ok {
		return nil, false, nil
	}
	val, err := t.manager.decodeRootValue(ptr)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// SetRootObject stages value under name in this transaction's draft.
// value may be a freshly built collection (*collection.List,
// *collection.Dictionary, *collection.Set,
// *collection.RepeatedKeysDictionary, *index.Registry) or any other
// value a caller wants round-tripped through a single atom verbatim.
func (t *Transaction) SetRootObject(name string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != stateOpen {
		return fmt.Errorf("%w: transaction is not open", types.ErrClosed)
	}
	if t.drafts == nil {
		t.drafts = make(map[string]any)
	}
	t.drafts[name] = value
	return nil
}

// State reports whether the transaction is open, committed, or
// aborted.
func (t *Transaction) State() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case stateCommitted:
		return "committed"
	case stateAborted:
		return "aborted"
	default:
		return "open"
	}
}
