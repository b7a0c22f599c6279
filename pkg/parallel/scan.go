package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Fetch loads the logical element at position i of a scan.
type Fetch func(i int) (any, error)

// Process transforms one element fetched by a scan into its result.
type Process func(v any) (any, error)

// Scanner runs a parallel_scan over [0, n) per spec §5/§8: a pool of
// workers pulls adaptively-sized chunks off a shared cursor onto their
// own deque, processes them bottom-up, and steals from a sibling's
// deque top when both its own deque and the cursor are empty.
type Scanner struct {
	cfg types.ParallelConfig
}

// NewScanner builds a Scanner from cfg. A zero MaxWorkers is treated
// as 1, matching sequential execution.
func NewScanner(cfg types.ParallelConfig) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan applies fetch then process to every index in [0, n) and returns
// their results. The result order is not guaranteed to match index
// order; callers that need order-preserving results should sort the
// output themselves or run with MaxWorkers == 1, which processes
// chunks of the whole range in a single, strictly ascending pass.
func (s *Scanner) Scan(ctx context.Context, n int, fetch Fetch, process Process) ([]any, error) {
	if n <= 0 {
		return nil, nil
	}
	if s.cfg.Scheduler == types.SchedulerThreadPool {
		return s.scanThreadPool(ctx, n, fetch, process)
	}

	workers := s.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	deques := make([]*deque, workers)
	chunkers := make([]*chunker, workers)
	for i := range deques {
		deques[i] = newDeque()
		chunkers[i] = newChunker(s.cfg)
	}

	var cursor int64
	remaining := int64(n)

	claim := func(size int) (chunk, bool) {
		for {
			cur := atomic.LoadInt64(&cursor)
			if cur >= int64(n) {
				return chunk{}, false
			}
			end := cur + int64(size)
			if end > int64(n) {
				end = int64(n)
			}
			if atomic.CompareAndSwapInt64(&cursor, cur, end) {
				return chunk{start: int(cur), end: int(end)}, true
			}
		}
	}

	var resultsMu sync.Mutex
	var results []any

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			metrics.ParallelWorkersActive.Inc()
			defer metrics.ParallelWorkersActive.Dec()
			return s.runWorker(gctx, w, deques, chunkers[w], claim, &remaining, fetch, process, &resultsMu, &results)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scanner) runWorker(
	ctx context.Context,
	w int,
	deques []*deque,
	ck *chunker,
	claim func(int) (chunk, bool),
	remaining *int64,
	fetch Fetch,
	process Process,
	resultsMu *sync.Mutex,
	results *[]any,
) error {
	own := deques[w]
	for atomic.LoadInt64(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return wrapContextErr(err)
		}

		c, ok := own.popBottom()
		if !ok {
			refill(own, ck, claim)
			c, ok = own.popBottom()
		}
		if !ok {
			c, ok = steal(deques, w)
			if ok {
				metrics.ParallelStealsTotal.Inc()
			}
		}
		if !ok {
			select {
			case <-ctx.Done():
				return wrapContextErr(ctx.Err())
			case <-time.After(s.cfg.StealTimeout):
			}
			continue
		}

		started := time.Now()
		out, err := runChunk(ctx, c, fetch, process)
		if err != nil {
			return err
		}
		length := c.end - c.start
		ck.observe(time.Since(started), length)
		metrics.ParallelChunkSize.Observe(float64(length))

		resultsMu.Lock()
		*results = append(*results, out...)
		resultsMu.Unlock()

		atomic.AddInt64(remaining, -int64(length))
	}
	return nil
}

// refill claims a batch of chunks sized at ck's current target and
// pushes them onto own, so a later steal has something to take. The
// chunks are pushed highest first, so the owner's popBottom takes them
// in ascending order.
func refill(own *deque, ck *chunker, claim func(int) (chunk, bool)) {
	size := ck.nextSize()
	batch, ok := claim(size * refillBatch)
	if !ok {
		return
	}
	var chunks []chunk
	for start := batch.start; start < batch.end; start += size {
		end := start + size
		if end > batch.end {
			end = batch.end
		}
		chunks = append(chunks, chunk{start: start, end: end})
	}
	for i := len(chunks) - 1; i >= 0; i-- {
		own.pushBottom(chunks[i])
	}
}

func runChunk(ctx context.Context, c chunk, fetch Fetch, process Process) ([]any, error) {
	out := make([]any, 0, c.end-c.start)
	for i := c.start; i < c.end; i++ {
		if err := ctx.Err(); err != nil {
			return nil, wrapContextErr(err)
		}
		v, err := fetch(i)
		if err != nil {
			return nil, fmt.Errorf("fetch %d: %w", i, err)
		}
		r, err := process(v)
		if err != nil {
			return nil, fmt.Errorf("process %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// scanThreadPool implements the parallel.scheduler: thread_pool
// alternative: a fixed worker pool pulling fixed-size chunks off a
// shared channel, with no per-worker deques or stealing. It trades
// the work-stealing scheduler's load balancing for a simpler,
// lower-overhead pool when chunk cost is known to be uniform.
func (s *Scanner) scanThreadPool(ctx context.Context, n int, fetch Fetch, process Process) ([]any, error) {
	workers := s.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	size := clampInt(s.cfg.InitialChunkSize, s.cfg.MinChunkSize, s.cfg.MaxChunkSize)

	chunks := make(chan chunk)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		for start := 0; start < n; start += size {
			end := start + size
			if end > n {
				end = n
			}
			select {
			case chunks <- chunk{start: start, end: end}:
			case <-gctx.Done():
				return wrapContextErr(gctx.Err())
			}
		}
		return nil
	})

	var resultsMu sync.Mutex
	var results []any
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			metrics.ParallelWorkersActive.Inc()
			defer metrics.ParallelWorkersActive.Dec()
			for c := range chunks {
				out, err := runChunk(gctx, c, fetch, process)
				if err != nil {
					return err
				}
				metrics.ParallelChunkSize.Observe(float64(c.end - c.start))

				resultsMu.Lock()
				results = append(results, out...)
				resultsMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func wrapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: parallel scan exceeded its deadline", types.ErrTimeout)
	}
	return err
}
