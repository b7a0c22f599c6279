package parallel

import (
	"time"

	"github.com/cuemby/protobase/pkg/types"
)

// refillBatch is how many chunks a worker claims from the shared
// cursor at once, so it has something left in its own deque for a
// thief to take from the top while it keeps working the bottom.
const refillBatch = 4

// chunker tracks one worker's exponential moving average of chunk
// service time and adapts its next claim size toward the configured
// [target_ms_low, target_ms_high] band, per spec §5.
type chunker struct {
	cfg     types.ParallelConfig
	emaMS   float64
	haveEMA bool
	size    int
}

func newChunker(cfg types.ParallelConfig) *chunker {
	return &chunker{cfg: cfg, size: clampInt(cfg.InitialChunkSize, cfg.MinChunkSize, cfg.MaxChunkSize)}
}

// nextSize returns the chunk size to claim next.
func (c *chunker) nextSize() int {
	return c.size
}

// observe folds the service time of a just-completed chunk of the
// given length into the EMA and grows or shrinks the next claim size
// accordingly.
func (c *chunker) observe(elapsed time.Duration, length int) {
	if length <= 0 {
		return
	}
	perItemMS := float64(elapsed) / float64(time.Millisecond) / float64(length) * float64(c.size)
	if !c.haveEMA {
		c.emaMS = perItemMS
		c.haveEMA = true
	} else {
		alpha := c.cfg.ChunkEMAAlpha
		c.emaMS = alpha*perItemMS + (1-alpha)*c.emaMS
	}

	switch {
	case c.emaMS < c.cfg.TargetMSLow:
		c.size = clampInt(c.size*2, c.cfg.MinChunkSize, c.cfg.MaxChunkSize)
	case c.emaMS > c.cfg.TargetMSHigh:
		c.size = clampInt(c.size/2, c.cfg.MinChunkSize, c.cfg.MaxChunkSize)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
