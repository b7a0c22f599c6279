/*
Package block defines the BlockProvider contract that the rest of the
storage engine is built on: append-only segment streams plus a single
durable "current root pointer" guarded by a scoped mutual-exclusion
lock.

# Architecture

	┌──────────────────── BLOCK LAYER ──────────────────────────┐
	│                                                            │
	│  BlockProvider                                            │
	│    AllocateWAL() (walID, baseOffset)                      │
	│    OpenReader(walID, offset) ReadStream                   │
	│    OpenWriter(walID) WriteStream                          │
	│    ReadRootPtr() (AtomPointer, bool, error)               │
	│    WriteRootPtr(AtomPointer) error                        │
	│    RootScope() (ScopedLock, error)                        │
	│    Close() error                                          │
	│                                                            │
	│  ┌────────────┐  ┌─────────────┐  ┌─────────────────┐    │
	│  │ FileProvider│  │MemoryProvider│ │ BoltProvider     │    │
	│  │ (os files,  │  │ (in-process, │ │ (bbolt buckets,  │    │
	│  │ flock)      │  │ mutex)       │ │ single-file alt) │    │
	│  └────────────┘  └─────────────┘  └─────────────────┘    │
	│                                                            │
	└────────────────────────────────────────────────────────────┘

Every backend implements the same BlockProvider interface; pkg/wal is
written against the interface and never a concrete backend.
*/
package block
