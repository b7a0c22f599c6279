package wal

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/cuemby/protobase/pkg/block"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AtomStore {
	t.Helper()
	provider := block.NewMemoryProvider()
	cfg := types.DefaultConfig()
	s, err := Open(provider, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPushAtomGetAtomRoundTrip(t *testing.T) {
	for _, format := range []types.PayloadFormat{types.FormatJSON, types.FormatMsgpack} {
		s := newTestStore(t)
		ptr, err := s.PushAtom(map[string]any{"x": int64(1), "name": "a"}, format)
		require.NoError(t, err)

		got, err := s.GetAtom(ptr)
		require.NoError(t, err)
		require.Equal(t, "a", got["name"])
	}
}

func TestPushBytesGetBytesRawRoundTrip(t *testing.T) {
	s := newTestStore(t)
	data := []byte("arbitrary opaque bytes")
	ptr, err := s.PushBytes(data, types.FormatRaw)
	require.NoError(t, err)

	got, err := s.GetBytes(ptr)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

// TestLegacyFrameBackwardCompat mirrors spec §8's seed scenario: a
// record written without a format byte (length + payload only) must
// still decode as JSON on read, since that is how every frame looked
// before the format byte was introduced.
func TestLegacyFrameBackwardCompat(t *testing.T) {
	s := newTestStore(t)

	payload, err := json.Marshal(map[string]any{"x": 1})
	require.NoError(t, err)

	legacy := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint64(legacy[0:8], uint64(len(payload)))
	copy(legacy[8:], payload)

	s.mu.Lock()
	off, err := s.writer.Append(legacy)
	require.NoError(t, err)
	s.currentSize = off + uint64(len(legacy))
	ptr := types.AtomPointer{TransactionID: s.currentWAL, Offset: off}
	s.mu.Unlock()

	got, err := s.GetAtom(ptr)
	require.NoError(t, err)
	require.Equal(t, float64(1), got["x"])
}

func TestSegmentRotationPreservesOlderReads(t *testing.T) {
	provider := block.NewMemoryProvider()
	cfg := types.DefaultConfig()
	cfg.WALSegmentMaxBytes = frameHeaderSize + 32
	s, err := Open(provider, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	first, err := s.PushAtom(map[string]any{"n": int64(1)}, types.FormatJSON)
	require.NoError(t, err)
	firstWAL := first.TransactionID

	// Force at least one rotation by pushing past the tiny segment size.
	var last types.AtomPointer
	for i := 0; i < 8; i++ {
		last, err = s.PushAtom(map[string]any{"n": int64(i)}, types.FormatJSON)
		require.NoError(t, err)
	}
	require.NotEqual(t, firstWAL, last.TransactionID)

	got, err := s.GetAtom(first)
	require.NoError(t, err)
	require.Equal(t, float64(1), got["n"])
}

func TestCloseRejectsFurtherWrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.PushAtom(map[string]any{"a": int64(1)}, types.FormatJSON)
	require.ErrorIs(t, err, types.ErrClosed)
}

func TestStatsReflectsWrites(t *testing.T) {
	s := newTestStore(t)
	before := s.Stats()
	_, err := s.PushAtom(map[string]any{"a": int64(1)}, types.FormatJSON)
	require.NoError(t, err)
	after := s.Stats()
	require.Greater(t, after.BytesWritten, before.BytesWritten)
}
