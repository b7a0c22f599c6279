// Package protobase is the public facade of the embedded,
// transactional, object-oriented storage engine: a block provider, a
// write-ahead log, a two-tier object/bytes cache, a snapshot-isolated
// transaction manager, and an optional work-stealing scan executor,
// wired together behind one explicit StorageContext handle.
package protobase

import (
	"fmt"

	"github.com/cuemby/protobase/pkg/block"
	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/parallel"
	"github.com/cuemby/protobase/pkg/txn"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/cuemby/protobase/pkg/wal"
)

// StorageContext is the one handle every public operation takes, per
// spec §9's design note against implicit global singletons ("pass a
// StorageContext handle explicitly through public APIs"): it owns the
// block provider, the WAL, the cache, the transaction manager, the
// metrics collector, and the parallel scan executor as independently
// inspectable collaborators rather than package-level state.
type StorageContext struct {
	Config  types.Config
	Txn     *txn.Manager
	Scanner *parallel.Scanner
	Metrics *metrics.Collector

	provider block.Provider
	store    *wal.AtomStore
	cache    *cache.AtomCache
}

// OpenMemory builds a StorageContext over an in-memory block provider.
// Nothing written through it survives process exit; it exists for
// tests and ephemeral embeddings.
func OpenMemory(cfg types.Config) (*StorageContext, error) {
	return open(cfg, block.NewMemoryProvider())
}

// OpenFile builds a StorageContext over the file-based block provider
// rooted at dir: WAL segments plus a root-pointer file, durable across
// process restarts.
func OpenFile(cfg types.Config, dir string) (*StorageContext, error) {
	provider, err := block.NewFileProvider(dir)
	if err != nil {
		return nil, err
	}
	return open(cfg, provider)
}

// OpenBolt builds a StorageContext over the bbolt-backed block
// provider at path, trading the file provider's flat WAL-segment
// layout for bbolt's own transactional B+tree storage of both WAL
// frames and the root pointer.
func OpenBolt(cfg types.Config, path string) (*StorageContext, error) {
	provider, err := block.NewBoltProvider(path)
	if err != nil {
		return nil, err
	}
	return open(cfg, provider)
}

func open(cfg types.Config, provider block.Provider) (*StorageContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := wal.Open(provider, cfg)
	if err != nil {
		return nil, err
	}
	c := cache.New(cfg, store.GetBytes)
	collector := metrics.NewCollector(c, store)
	collector.Start()

	return &StorageContext{
		Config:   cfg,
		Txn:      txn.NewManager(provider, store, c),
		Scanner:  parallel.NewScanner(cfg.Parallel),
		Metrics:  collector,
		provider: provider,
		store:    store,
		cache:    c,
	}, nil
}

// Begin starts a new snapshot-isolated transaction against the root
// namespace, per spec §4.7.
func (s *StorageContext) Begin() (*txn.Transaction, error) {
	return s.Txn.Begin()
}

// Commit publishes tx's staged root objects, CAS-checked against
// whatever else committed since tx's snapshot was taken.
func (s *StorageContext) Commit(tx *txn.Transaction) error {
	return s.Txn.Commit(tx)
}

// Abort discards tx's staged root objects without publishing them.
func (s *StorageContext) Abort(tx *txn.Transaction) {
	s.Txn.Abort(tx)
}

// Sync forces the WAL's buffered frames to stable storage, beyond
// whatever the configured flush interval and commit_fsync setting
// would otherwise guarantee.
func (s *StorageContext) Sync() error {
	return s.store.Sync()
}

// Close stops the metrics collector, flushes and closes the WAL, and
// releases the block provider. A StorageContext must not be used
// after Close returns.
func (s *StorageContext) Close() error {
	s.Metrics.Stop()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close wal: %w", err)
	}
	if err := s.provider.Close(); err != nil {
		return fmt.Errorf("close provider: %w", err)
	}
	return nil
}
