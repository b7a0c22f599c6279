// Package txn implements the transaction manager from spec §4.7:
// snapshot-isolated reads over a named root-object namespace, draft
// staging for writes, and an atomic commit that serializes new atoms,
// chains a root-history atom to its predecessor, and CAS-publishes it
// under the block.Provider's root scope with rebase-on-conflict.
package txn
