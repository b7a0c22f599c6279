package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scheduler selects the parallel-scan worker implementation.
type Scheduler string

const (
	SchedulerWorkStealing Scheduler = "work_stealing"
	SchedulerThreadPool   Scheduler = "thread_pool"
)

// ParallelConfig tunes the work-stealing parallel scan executor
// (spec §5, §6.5).
type ParallelConfig struct {
	MaxWorkers       int           `yaml:"max_workers"`
	Scheduler        Scheduler     `yaml:"scheduler"`
	InitialChunkSize int           `yaml:"initial_chunk_size"`
	MinChunkSize     int           `yaml:"min_chunk_size"`
	MaxChunkSize     int           `yaml:"max_chunk_size"`
	TargetMSLow      float64       `yaml:"target_ms_low"`
	TargetMSHigh     float64       `yaml:"target_ms_high"`
	ChunkEMAAlpha    float64       `yaml:"chunk_ema_alpha"`
	StealTimeout     time.Duration `yaml:"steal_timeout"`
}

// Config collects every named option from spec §6.5, with the
// documented defaults applied by DefaultConfig.
type Config struct {
	EnableObjectCache bool `yaml:"enable_object_cache"`
	EnableBytesCache  bool `yaml:"enable_bytes_cache"`

	ObjectCacheMaxEntries int `yaml:"object_cache_max_entries"`
	ObjectCacheMaxBytes   int `yaml:"object_cache_max_bytes"`
	BytesCacheMaxEntries  int `yaml:"bytes_cache_max_entries"`
	BytesCacheMaxBytes    int `yaml:"bytes_cache_max_bytes"`

	CacheStripes        int     `yaml:"cache_stripes"`
	CacheProbationRatio float64 `yaml:"cache_probation_ratio"`

	SchemaEpoch uint64 `yaml:"schema_epoch"`

	WALSegmentMaxBytes int64 `yaml:"wal_segment_max_bytes"`
	CommitFsync        bool  `yaml:"commit_fsync"`

	Parallel ParallelConfig `yaml:"parallel"`
}

// DefaultConfig returns the configuration defaults named in spec §6.5.
func DefaultConfig() Config {
	return Config{
		EnableObjectCache: true,
		EnableBytesCache:  true,

		ObjectCacheMaxEntries: 50_000,
		ObjectCacheMaxBytes:   256 * 1024 * 1024,
		BytesCacheMaxEntries:  20_000,
		BytesCacheMaxBytes:    128 * 1024 * 1024,

		CacheStripes:        64,
		CacheProbationRatio: 0.5,

		WALSegmentMaxBytes: 64 * 1024 * 1024,
		CommitFsync:        false,

		Parallel: ParallelConfig{
			MaxWorkers:       defaultMaxWorkers(),
			Scheduler:        SchedulerWorkStealing,
			InitialChunkSize: 1000,
			MinChunkSize:     128,
			MaxChunkSize:     8192,
			TargetMSLow:      0.5,
			TargetMSHigh:     2.0,
			ChunkEMAAlpha:    0.2,
			StealTimeout:     time.Millisecond,
		},
	}
}

func defaultMaxWorkers() int {
	const cap = 8
	n := numCPU()
	if n > cap {
		return cap
	}
	if n < 1 {
		return 1
	}
	return n
}

// Validate rejects configurations that would make the engine behave
// unpredictably (negative capacities, malformed ratios).
func (c Config) Validate() error {
	if c.ObjectCacheMaxEntries < 0 || c.ObjectCacheMaxBytes < 0 ||
		c.BytesCacheMaxEntries < 0 || c.BytesCacheMaxBytes < 0 {
		return fmt.Errorf("%w: cache capacities must be non-negative", ErrValidation)
	}
	if c.CacheStripes <= 0 {
		return fmt.Errorf("%w: cache_stripes must be positive", ErrValidation)
	}
	if c.CacheProbationRatio < 0 || c.CacheProbationRatio > 1 {
		return fmt.Errorf("%w: cache_probation_ratio must be in [0,1]", ErrValidation)
	}
	if c.WALSegmentMaxBytes <= 0 {
		return fmt.Errorf("%w: wal_segment_max_bytes must be positive", ErrValidation)
	}
	if c.Parallel.MaxWorkers <= 0 {
		return fmt.Errorf("%w: parallel.max_workers must be positive", ErrValidation)
	}
	if c.Parallel.MinChunkSize <= 0 || c.Parallel.MaxChunkSize < c.Parallel.MinChunkSize {
		return fmt.Errorf("%w: parallel chunk size bounds are invalid", ErrValidation)
	}
	return nil
}

// LoadConfig reads a YAML configuration file onto DefaultConfig, so
// keys the file omits keep their default and keys it sets explicitly,
// zero values included, replace the default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read config: %v", ErrIO, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config: %v", ErrValidation, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
