/*
Package collection implements the persistent, copy-on-write data
structures described in spec §4.4: List (AVL-balanced, positional),
Dictionary (AVL-balanced, keyed by string), HashDictionary (AVL-
balanced, keyed by a canonical 64-bit hash), Set (built on
HashDictionary), and RepeatedKeysDictionary (Dictionary of Set).

Every mutation returns a new root; the receiver is left untouched.
Unmodified subtrees are shared between the old and new roots rather
than copied, the same structural-sharing discipline the storage
engine uses for root-map namespaces at a higher level.

# Canonical hashing

HashDictionary and Set key non-atom values by CanonicalHash (FNV-1a,
64-bit) over a deterministic encoding of the value, per §4.4.6's
requirement that content-based hashing, not identity, drive bucket
placement. Keys that are themselves persisted atoms hash their
AtomPointer instead — see pkg/types.AtomPointer and the
HashableAsAtom interface in this package.
*/
package collection
