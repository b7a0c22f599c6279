package block

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/google/uuid"
)

// MemoryProvider is an in-process BlockProvider backend: segments live
// as growable byte buffers, and the root pointer is a lock-guarded
// field swap instead of a file rename. Intended for tests and
// short-lived embedded uses that don't need durability across process
// restarts.
type MemoryProvider struct {
	mu       sync.RWMutex
	segments map[uuid.UUID]*bytes.Buffer
	root     *types.AtomPointer

	// ptrMu guards root itself; scopeMu is the RootScope mutual-
	// exclusion primitive. They are deliberately separate: a holder of
	// the scope lock must still be able to call ReadRootPtr/
	// WriteRootPtr without deadlocking against itself, matching
	// FileProvider's independent flock-vs-file-I/O split.
	ptrMu   sync.Mutex
	scopeMu sync.Mutex
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		segments: make(map[uuid.UUID]*bytes.Buffer),
	}
}

func (p *MemoryProvider) AllocateWAL() (uuid.UUID, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := types.NewTransactionID()
	p.segments[id] = &bytes.Buffer{}
	return id, 0, nil
}

func (p *MemoryProvider) OpenReader(walID uuid.UUID, _ uint64) (ReadStream, error) {
	p.mu.RLock()
	buf, ok := p.segments[walID]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown segment %s", types.ErrIO, walID)
	}
	return &memoryReader{segment: buf, provider: p}, nil
}

func (p *MemoryProvider) OpenWriter(walID uuid.UUID) (WriteStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf, ok := p.segments[walID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown segment %s", types.ErrIO, walID)
	}
	return &memoryWriteStream{segment: buf, provider: p}, nil
}

func (p *MemoryProvider) ReadRootPtr() (types.AtomPointer, bool, error) {
	p.ptrMu.Lock()
	defer p.ptrMu.Unlock()
	if p.root == nil {
		return types.AtomPointer{}, false, nil
	}
	return *p.root, true, nil
}

func (p *MemoryProvider) WriteRootPtr(ptr types.AtomPointer) error {
	p.ptrMu.Lock()
	defer p.ptrMu.Unlock()
	cp := ptr
	p.root = &cp
	return nil
}

type memoryScopedLock struct {
	once sync.Once
	mu   *sync.Mutex
}

func (l *memoryScopedLock) Release() error {
	l.once.Do(l.mu.Unlock)
	return nil
}

// RootScope acquires the provider's scope mutex, independent of the
// mutex guarding the root pointer value itself, so a holder can read
// and then write the root pointer without deadlocking against its own
// lock. As on the file backend, a second RootScope call from the same
// goroutine blocks (deadlocks) rather than succeeding trivially —
// nested acquisition is not required by the contract.
func (p *MemoryProvider) RootScope() (ScopedLock, error) {
	p.scopeMu.Lock()
	return &memoryScopedLock{mu: &p.scopeMu}, nil
}

func (p *MemoryProvider) Close() error {
	return nil
}

// memoryReader implements io.ReaderAt over a segment buffer that may
// still be growing; a read that reaches past the currently-written
// length returns the bytes available together with a types.ErrIO
// error.
type memoryReader struct {
	segment  *bytes.Buffer
	provider *MemoryProvider
}

func (r *memoryReader) ReadAt(p []byte, off int64) (int, error) {
	r.provider.mu.RLock()
	defer r.provider.mu.RUnlock()

	data := r.segment.Bytes()
	if off >= int64(len(data)) {
		return 0, fmt.Errorf("%w: read past end of segment", types.ErrIO)
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, fmt.Errorf("%w: short read at end of segment", types.ErrIO)
	}
	return n, nil
}

func (r *memoryReader) Close() error { return nil }

type memoryWriteStream struct {
	segment  *bytes.Buffer
	provider *MemoryProvider
}

func (w *memoryWriteStream) Append(p []byte) (uint64, error) {
	w.provider.mu.Lock()
	defer w.provider.mu.Unlock()
	off := uint64(w.segment.Len())
	w.segment.Write(p)
	return off, nil
}

func (w *memoryWriteStream) Flush() error { return nil }
func (w *memoryWriteStream) Fsync() error { return nil }
func (w *memoryWriteStream) Close() error { return nil }
