// Package storage routes dates to monthly SQLite shards and manages their
// lifecycle through a shared pool.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"trendwatch/internal/types"
)

// ErrShardUnavailable is returned when a shard file cannot be opened.
var ErrShardUnavailable = errors.New("shard unavailable")

// Router maps (date, kind) pairs to shard file paths. All data for one
// calendar month of one kind lives in a single file.
type Router struct {
	dataDir string
	clock   types.Clock
}

// NewRouter creates a router rooted at dataDir.
func NewRouter(dataDir string, clock types.Clock) *Router {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Router{dataDir: dataDir, clock: clock}
}

// Resolve returns the shard path for a date. An empty date means today.
func (r *Router) Resolve(date string, kind types.StoreKind) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid store kind: %s", kind)
	}
	if date == "" {
		date = r.clock.Now().Format("2006-01-02")
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return filepath.Join(r.dataDir, string(kind), t.Format("2006-01")+".db"), nil
}

// DataDir returns the root directory shards live under.
func (r *Router) DataDir() string {
	return r.dataDir
}
