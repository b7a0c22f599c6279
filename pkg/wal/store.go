package wal

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/protobase/pkg/block"
	"github.com/cuemby/protobase/pkg/log"
	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/google/uuid"
)

// flushInterval is how often the background loop forces an fsync of
// the current segment when commit_fsync is false but durability
// should still trail writes by a bounded amount.
const flushInterval = 200 * time.Millisecond

// AtomStore persists and retrieves atoms on top of a block.Provider,
// per spec §4.2.
type AtomStore struct {
	provider block.Provider
	cfg      types.Config

	mu           sync.Mutex
	currentWAL   uuid.UUID
	currentSize  uint64
	writer       block.WriteStream
	readers      map[uuid.UUID]block.ReadStream
	bytesWritten uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Open starts a new WAL segment and launches the background flush
// loop. It never resumes an existing segment; earlier segments stay
// readable through their AtomPointers.
func Open(provider block.Provider, cfg types.Config) (*AtomStore, error) {
	s := &AtomStore{
		provider: provider,
		cfg:      cfg,
		readers:  make(map[uuid.UUID]block.ReadStream),
		stopCh:   make(chan struct{}),
	}
	if err := s.rotate(); err != nil {
		return nil, err
	}
	s.wg.Add(1)
	go s.flushLoop()
	return s, nil
}

func (s *AtomStore) rotate() error {
	id, _, err := s.provider.AllocateWAL()
	if err != nil {
		return err
	}
	w, err := s.provider.OpenWriter(id)
	if err != nil {
		return err
	}
	s.currentWAL = id
	s.currentSize = 0
	s.writer = w
	log.WithComponent("wal").Debug().Str("wal_id", id.String()).Msg("rotated wal segment")
	return nil
}

func (s *AtomStore) flushLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.Sync()
		case <-s.stopCh:
			return
		}
	}
}

// PushAtom encodes value per format and appends a framed record,
// returning the pointer assigned to it.
func (s *AtomStore) PushAtom(value map[string]any, format types.PayloadFormat) (types.AtomPointer, error) {
	if format == types.FormatRaw {
		return types.AtomPointer{}, fmt.Errorf("%w: push_atom requires a decodable format", types.ErrValidation)
	}
	payload, err := encodePayload(format, value)
	if err != nil {
		return types.AtomPointer{}, err
	}
	return s.pushFrame(format, payload)
}

// PushBytes writes opaque bytes framed as format (RAW by default).
func (s *AtomStore) PushBytes(data []byte, format types.PayloadFormat) (types.AtomPointer, error) {
	return s.pushFrame(format, data)
}

func (s *AtomStore) pushFrame(format types.PayloadFormat, payload []byte) (types.AtomPointer, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.WALAppendDuration)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.AtomPointer{}, fmt.Errorf("%w: wal is closed", types.ErrClosed)
	}

	if s.currentSize > 0 && s.currentSize+frameHeaderSize+1+uint64(len(payload)) > uint64(s.cfg.WALSegmentMaxBytes) {
		if err := s.rotateLocked(); err != nil {
			return types.AtomPointer{}, err
		}
	}

	frame := encodeFrame(format, payload)
	off, err := s.writer.Append(frame)
	if err != nil {
		return types.AtomPointer{}, err
	}
	s.currentSize = off + uint64(len(frame))
	s.bytesWritten += uint64(len(frame))

	metrics.WALAppendsTotal.Inc()
	metrics.WALBytesWrittenTotal.Add(float64(len(frame)))

	if s.cfg.CommitFsync {
		if err := s.writer.Fsync(); err != nil {
			return types.AtomPointer{}, err
		}
	}

	return types.AtomPointer{TransactionID: s.currentWAL, Offset: off}, nil
}

func (s *AtomStore) rotateLocked() error {
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.rotate()
}

// GetAtom returns the deserialized map stored at ptr.
func (s *AtomStore) GetAtom(ptr types.AtomPointer) (map[string]any, error) {
	format, payload, _, err := s.readFrame(ptr)
	if err != nil {
		return nil, err
	}
	if format == types.FormatRaw {
		return nil, fmt.Errorf("%w: atom at %s is stored as raw bytes", types.ErrCorruption, ptr)
	}
	return decodePayload(format, payload)
}

// GetBytes returns the raw post-frame payload stored at ptr.
func (s *AtomStore) GetBytes(ptr types.AtomPointer) ([]byte, error) {
	_, payload, _, err := s.readFrame(ptr)
	return payload, err
}

func (s *AtomStore) readFrame(ptr types.AtomPointer) (types.PayloadFormat, []byte, uint64, error) {
	reader, err := s.readerFor(ptr.TransactionID)
	if err != nil {
		return 0, nil, 0, err
	}
	format, payload, size, err := readFrameAt(reader, ptr.Offset)
	if err != nil {
		metrics.WALCorruptionErrorsTotal.Inc()
		return 0, nil, 0, err
	}
	return format, payload, size, nil
}

func (s *AtomStore) readerFor(walID uuid.UUID) (block.ReadStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.readers[walID]; ok {
		return r, nil
	}
	r, err := s.provider.OpenReader(walID, 0)
	if err != nil {
		return nil, err
	}
	s.readers[walID] = r
	return r, nil
}

// Sync fsyncs the current segment.
func (s *AtomStore) Sync() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.WALFlushDuration)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.writer.Fsync()
}

// Stats returns a point-in-time snapshot for metrics.Collector.
func (s *AtomStore) Stats() metrics.WALStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := len(s.readers)
	if _, ok := s.readers[s.currentWAL]; !ok {
		open++
	}
	return metrics.WALStats{
		OpenSegments: open,
		BytesWritten: s.bytesWritten,
	}
}

// Close stops the background flusher, syncs, and releases resources.
func (s *AtomStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.writer.Flush(); err != nil {
		return err
	}
	if err := s.writer.Fsync(); err != nil {
		return err
	}
	if err := s.writer.Close(); err != nil {
		return err
	}
	for _, r := range s.readers {
		if err := r.Close(); err != nil {
			return err
		}
	}
	return nil
}
