package block

import (
	"io"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/google/uuid"
)

// ReadStream is a positional reader over a WAL segment. Implementations
// must return a stable byte view for the requested range even if a
// writer concurrently appends past it.
type ReadStream interface {
	io.ReaderAt
	io.Closer
}

// WriteStream is an append-only writer over a WAL segment.
type WriteStream interface {
	// Append writes bytes at the current end of the segment and
	// returns the offset at which they began.
	Append(p []byte) (offset uint64, err error)
	// Flush pushes buffered bytes to the underlying backend without
	// necessarily making them durable.
	Flush() error
	// Fsync forces durability of everything written so far.
	Fsync() error
	Close() error
}

// ScopedLock guards the current-root-pointer update. Release is
// idempotent; callers should defer it immediately after acquisition.
type ScopedLock interface {
	Release() error
}

// Provider abstracts append-only WAL segment storage and a single
// durable current-root pointer, per spec §4.1. Concrete backends
// (file, memory, bbolt) are interchangeable; the rest of the engine
// depends only on this interface.
type Provider interface {
	// AllocateWAL returns a new segment identity and its initial byte
	// offset (ordinarily 0).
	AllocateWAL() (walID uuid.UUID, baseOffset uint64, err error)

	// OpenReader returns a positional reader over an existing segment
	// starting logically at offset (offset is informational; readers
	// are addressed with absolute positions via ReadAt).
	OpenReader(walID uuid.UUID, offset uint64) (ReadStream, error)

	// OpenWriter returns an append-only writer for a segment. A
	// backend may only allow one open writer per segment at a time.
	OpenWriter(walID uuid.UUID) (WriteStream, error)

	// ReadRootPtr returns the currently published root pointer, or
	// the zero pointer if no root has ever been published.
	// Implementations should tolerate transient replace windows with
	// a brief internal retry.
	ReadRootPtr() (types.AtomPointer, bool, error)

	// WriteRootPtr atomically publishes a new root pointer. Durable
	// backends use tmp+fsync+rename+fsync(dir); in-memory backends
	// perform a lock-guarded swap.
	WriteRootPtr(ptr types.AtomPointer) error

	// RootScope acquires the root-update mutual-exclusion lock,
	// blocking until it succeeds. Callers must Release it on every
	// exit path.
	RootScope() (ScopedLock, error)

	// Close flushes buffers and releases all open streams.
	Close() error
}
