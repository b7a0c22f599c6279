package txn

import (
	"fmt"

	"github.com/cuemby/protobase/pkg/block"
	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/log"
	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/cuemby/protobase/pkg/wal"
)

// Manager coordinates transaction lifecycle over a block.Provider,
// per spec §4.7. It holds no mutable state of its own beyond its
// collaborators; all isolation bookkeeping lives on the Transaction
// values it hands out.
type Manager struct {
	provider block.Provider
	store    *wal.AtomStore
	cache    *cache.AtomCache
}

// NewManager builds a Manager over an already-open provider, atom
// store, and atom cache. Wiring those three together (the cache's
// loader is normally store.GetBytes) is the caller's responsibility,
// mirroring how the engine's top-level constructor assembles them.
func NewManager(provider block.Provider, store *wal.AtomStore, c *cache.AtomCache) *Manager {
	return &Manager{provider: provider, store: store, cache: c}
}

// Begin captures the current published root pointer as a new
// transaction's snapshot.
func (m *Manager) Begin() (*Transaction, error) {
	ptr, ok, err := m.provider.ReadRootPtr()
	if err != nil {
		return nil, err
	}
	roots := make(map[string]types.AtomPointer)
	if ok {
		h, err := m.loadRootHistory(ptr)
		if err != nil {
			return nil, err
		}
		roots = h.roots
	}

	metrics.TxnStartedTotal.Inc()
	return &Transaction{
		id:            types.NewTransactionID(),
		manager:       m,
		snapshot:      ptr,
		hasSnapshot:   ok,
		snapshotRoots: roots,
		drafts:        make(map[string]any),
		state:         stateOpen,
	}, nil
}

// Commit implements spec §4.7's four-step commit sequence: serialize
// every new atom reachable from a staged root, build a root-history
// atom chained to the transaction's snapshot, then under the
// provider's root scope either CAS-publish directly or rebase onto
// whatever was published since the snapshot was taken.
func (m *Manager) Commit(tx *Transaction) error {
	tx.mu.Lock()
	if tx.state != stateOpen {
		tx.mu.Unlock()
		return fmt.Errorf("%w: transaction is not open", types.ErrClosed)
	}
	drafts := make(map[string]any, len(tx.drafts))
	for name, val := range tx.drafts {
		drafts[name] = val
	}
	tx.mu.Unlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TxnCommitDuration)

	txLog := log.WithTxnID(tx.id.String())

	// Step 1: serialize new atoms reachable from each staged root,
	// depth-first leaves first, write-through into the cache.
	p := newPersister(m.store, m.cache)
	persisted := make(map[string]types.AtomPointer, len(drafts))
	for name, val := range drafts {
		ptr, err := p.persistValue(val)
		if err != nil {
			return fmt.Errorf("persist root %q: %w", name, err)
		}
		persisted[name] = ptr
	}

	// Steps 2-3: build the root-history atom and CAS-publish it under
	// the root scope, with rebase-on-conflict.
	lock, err := m.provider.RootScope()
	if err != nil {
		return err
	}
	defer lock.Release()

	currentPtr, hasCurrent, err := m.provider.ReadRootPtr()
	if err != nil {
		return err
	}
	currentRoots := make(map[string]types.AtomPointer)
	if hasCurrent {
		h, err := m.loadRootHistory(currentPtr)
		if err != nil {
			return err
		}
		currentRoots = h.roots
	}

	sameSnapshot := hasCurrent == tx.hasSnapshot && currentPtr == tx.snapshot
	if !sameSnapshot {
		txLog.Debug().Msg("root advanced since snapshot, checking for rebase conflicts")
		for name := range drafts {
			oldPtr, hadOld := tx.snapshotRoots[name]
			curPtr, hasCur := currentRoots[name]
			if hadOld != hasCur || (hadOld && oldPtr != curPtr) {
				metrics.TxnConflictsTotal.Inc()
				tx.mu.Lock()
				tx.state = stateAborted
				tx.mu.Unlock()
				return fmt.Errorf("%w: root %q was modified since this transaction's snapshot", types.ErrConflict, name)
			}
		}
		metrics.TxnRebasesTotal.Inc()
	}

	merged := make(map[string]types.AtomPointer, len(currentRoots)+len(persisted))
	for name, ptr := range currentRoots {
		merged[name] = ptr
	}
	for name, ptr := range persisted {
		merged[name] = ptr
	}

	body := encodeRootHistory(rootHistory{
		parent:    currentPtr,
		hasParent: hasCurrent,
		txnID:     tx.id,
		roots:     merged,
	})
	newPtr, err := m.store.PushAtom(body, types.FormatMsgpack)
	if err != nil {
		return fmt.Errorf("%w: push root-history atom: %v", types.ErrIO, err)
	}
	m.cache.PutObject(newPtr, body)

	if err := m.provider.WriteRootPtr(newPtr); err != nil {
		return err
	}

	tx.mu.Lock()
	tx.state = stateCommitted
	tx.mu.Unlock()

	metrics.TxnCommitsTotal.Inc()
	txLog.Info().Str("atom_pointer", newPtr.String()).Msg("transaction committed")
	return nil
}

// Abort discards tx's drafts. Any atoms already written for it (there
// are none unless a caller called Commit and it failed after step 1)
// are orphaned, reachable only from no published root; storage
// reclamation is out of scope per spec §4.7.
func (m *Manager) Abort(tx *Transaction) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.state == stateOpen {
		tx.state = stateAborted
		metrics.TxnAbortsTotal.Inc()
	}
}

func (m *Manager) loadAtom(ptr types.AtomPointer) (map[string]any, error) {
	return m.cache.GetObject(ptr, decodeMsgpackBody)
}

func (m *Manager) loadRootHistory(ptr types.AtomPointer) (rootHistory, error) {
	body, err := m.loadAtom(ptr)
	if err != nil {
		return rootHistory{}, err
	}
	return decodeRootHistory(body)
}
