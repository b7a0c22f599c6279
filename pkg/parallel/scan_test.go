package parallel

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/stretchr/testify/require"
)

func sequentialScan(n int, fetch Fetch, process Process) ([]any, error) {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := fetch(i)
		if err != nil {
			return nil, err
		}
		r, err := process(v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func asInts(t *testing.T, vals []any) []int {
	t.Helper()
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = v.(int)
	}
	sort.Ints(out)
	return out
}

// TestParallelScanMatchesSequential mirrors spec §8's seed scenario:
// running parallel_scan(n, fetch, process) yields the same multiset as
// the sequential scan, regardless of worker count.
func TestParallelScanMatchesSequential(t *testing.T) {
	const n = 5000
	fetch := func(i int) (any, error) { return i, nil }
	process := func(v any) (any, error) { return v.(int) * 2, nil }

	want, err := sequentialScan(n, fetch, process)
	require.NoError(t, err)
	wantInts := asInts(t, want)

	for _, workers := range []int{1, 2, 3, 8, 32} {
		cfg := types.DefaultConfig().Parallel
		cfg.MaxWorkers = workers
		s := NewScanner(cfg)

		got, err := s.Scan(context.Background(), n, fetch, process)
		require.NoError(t, err)
		require.Equal(t, wantInts, asInts(t, got))
	}
}

func TestParallelScanThreadPoolScheduler(t *testing.T) {
	const n = 2000
	fetch := func(i int) (any, error) { return i, nil }
	process := func(v any) (any, error) { return v.(int) + 1, nil }

	want, err := sequentialScan(n, fetch, process)
	require.NoError(t, err)

	cfg := types.DefaultConfig().Parallel
	cfg.Scheduler = types.SchedulerThreadPool
	cfg.MaxWorkers = 4
	s := NewScanner(cfg)

	got, err := s.Scan(context.Background(), n, fetch, process)
	require.NoError(t, err)
	require.Equal(t, asInts(t, want), asInts(t, got))
}

func TestParallelScanPropagatesProcessError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(i int) (any, error) { return i, nil }
	process := func(v any) (any, error) {
		if v.(int) == 500 {
			return nil, boom
		}
		return v, nil
	}

	cfg := types.DefaultConfig().Parallel
	cfg.MaxWorkers = 4
	s := NewScanner(cfg)

	_, err := s.Scan(context.Background(), 1000, fetch, process)
	require.ErrorIs(t, err, boom)
}

func TestParallelScanRespectsContextDeadline(t *testing.T) {
	fetch := func(i int) (any, error) {
		time.Sleep(time.Millisecond)
		return i, nil
	}
	process := func(v any) (any, error) { return v, nil }

	cfg := types.DefaultConfig().Parallel
	cfg.MaxWorkers = 1
	cfg.InitialChunkSize = 1
	cfg.MinChunkSize = 1
	s := NewScanner(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := s.Scan(ctx, 100000, fetch, process)
	require.ErrorIs(t, err, types.ErrTimeout)
}

func TestParallelScanEmptyRange(t *testing.T) {
	cfg := types.DefaultConfig().Parallel
	s := NewScanner(cfg)
	got, err := s.Scan(context.Background(), 0, func(i int) (any, error) { return i, nil }, func(v any) (any, error) { return v, nil })
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestChunkerAdaptsWithinBounds(t *testing.T) {
	cfg := types.DefaultConfig().Parallel
	cfg.InitialChunkSize = 1000
	cfg.MinChunkSize = 128
	cfg.MaxChunkSize = 8192
	cfg.TargetMSLow = 0.5
	cfg.TargetMSHigh = 2.0
	ck := newChunker(cfg)

	// A chunk that finished far faster than the target band should
	// grow the next claim size, clamped to max_chunk_size.
	for i := 0; i < 10; i++ {
		ck.observe(10*time.Microsecond, ck.nextSize())
	}
	require.LessOrEqual(t, ck.nextSize(), cfg.MaxChunkSize)
	require.Greater(t, ck.nextSize(), cfg.InitialChunkSize)

	// A chunk that ran far slower than the target band should shrink
	// the next claim size, clamped to min_chunk_size.
	ck2 := newChunker(cfg)
	for i := 0; i < 10; i++ {
		ck2.observe(50*time.Millisecond, ck2.nextSize())
	}
	require.GreaterOrEqual(t, ck2.nextSize(), cfg.MinChunkSize)
	require.Less(t, ck2.nextSize(), cfg.InitialChunkSize)
}
