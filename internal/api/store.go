package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/cpctree/internal/builder"
	"github.com/dgallion1/cpctree/internal/metrics"
	"github.com/dgallion1/cpctree/internal/tree"
)

// Store holds the tree currently served and rebuilds it on demand.
type Store struct {
	builder *builder.Builder
	stats   *metrics.LatencyStats
	log     *slog.Logger

	buildMu sync.Mutex // serializes rebuilds

	mu      sync.RWMutex
	forest  tree.Forest
	builtAt time.Time
}

func NewStore(b *builder.Builder, stats *metrics.LatencyStats, log *slog.Logger) *Store {
	return &Store{builder: b, stats: stats, log: log}
}

// Forest returns the current tree and when it was built. The forest is nil
// until the first successful Rebuild and must not be modified.
func (s *Store) Forest() (tree.Forest, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest, s.builtAt
}

// Rebuild builds the tree from scratch and swaps it in. On failure the
// previous tree keeps being served.
func (s *Store) Rebuild(ctx context.Context) (int, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	var forest tree.Forest
	err := s.stats.Time(func() error {
		var err error
		forest, err = s.builder.Build(ctx)
		return err
	})
	if err != nil {
		s.log.Error("rebuild failed", "dir", s.builder.Dir(), "error", err)
		return 0, err
	}

	s.mu.Lock()
	s.forest = forest
	s.builtAt = time.Now()
	s.mu.Unlock()

	n := forest.Count()
	s.log.Info("tree rebuilt", "dir", s.builder.Dir(), "top_level", len(forest), "nodes", n)
	return n, nil
}

func (s *Store) BuildStats() builder.Stats {
	return s.builder.Stats()
}

func (s *Store) Latency() metrics.Snapshot {
	return s.stats.Snapshot()
}
