// Package retention removes shard files and snapshot artifacts older than
// the configured window.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"trendwatch/internal/storage"
	"trendwatch/internal/types"
)

// Sweeper deletes expired monthly shards and txt snapshot directories.
type Sweeper struct {
	pool   *storage.Pool
	days   int
	clock  types.Clock
	logger *zap.Logger
}

// NewSweeper creates a sweeper. days <= 0 disables sweeping entirely.
func NewSweeper(pool *storage.Pool, days int, clock types.Clock, logger *zap.Logger) *Sweeper {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{pool: pool, days: days, clock: clock, logger: logger}
}

// Sweep removes expired artifacts and returns how many were deleted. A shard
// month expires only once its entire month lies before the cutoff, so the
// newest shard is never deleted mid-month. Individual deletion failures are
// logged and skipped; the sweep keeps going.
func (s *Sweeper) Sweep(dataDir string) (int, error) {
	if s.days <= 0 {
		return 0, nil
	}
	cutoff := s.clock.Now().AddDate(0, 0, -s.days)

	removed := 0
	for _, kind := range []types.StoreKind{types.KindNews, types.KindFeed} {
		n, err := s.sweepShards(filepath.Join(dataDir, string(kind)), cutoff)
		if err != nil {
			return removed, err
		}
		removed += n
	}

	for _, sub := range []string{"txt", "reports"} {
		n, err := s.sweepDatedDirs(filepath.Join(dataDir, sub), cutoff)
		if err != nil {
			return removed, err
		}
		removed += n
	}

	s.logger.Info("retention sweep complete",
		zap.Int("removed", removed),
		zap.Time("cutoff", cutoff))
	return removed, nil
}

// sweepShards deletes YYYY-MM.db files (and their WAL sidecars) for months
// that ended before the cutoff.
func (s *Sweeper) sweepShards(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read shard directory %s: %w", dir, err)
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".db") {
			continue
		}
		month, err := time.Parse("2006-01", strings.TrimSuffix(name, ".db"))
		if err != nil {
			continue // not a shard file
		}
		nextMonth := month.AddDate(0, 1, 0)
		if nextMonth.After(cutoff) {
			continue
		}

		path := filepath.Join(dir, name)
		if err := s.pool.Evict(path); err != nil {
			s.logger.Warn("failed to evict shard before delete",
				zap.String("path", path), zap.Error(err))
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to delete shard",
				zap.String("path", path), zap.Error(err))
			continue
		}
		for _, sidecar := range []string{path + "-wal", path + "-shm"} {
			if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("failed to delete shard sidecar",
					zap.String("path", sidecar), zap.Error(err))
			}
		}
		s.logger.Info("deleted expired shard", zap.String("path", path))
		removed++
	}
	return removed, nil
}

// sweepDatedDirs deletes <YYYY-MM-DD> subdirectories older than the cutoff.
func (s *Sweeper) sweepDatedDirs(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact directory %s: %w", dir, err)
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		day, err := time.Parse("2006-01-02", e.Name())
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to delete snapshot directory",
				zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
