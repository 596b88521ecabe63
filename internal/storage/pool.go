package storage

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"trendwatch/internal/storage/sqlite"
	"trendwatch/internal/types"
)

// Pool caches open shards by file path so concurrent workers share one
// handle per shard instead of opening the file repeatedly.
type Pool struct {
	router *Router
	opts   sqlite.Options
	logger *zap.Logger

	mu     sync.Mutex
	shards map[string]*sqlite.Shard
}

// NewPool creates a pool over router. opts apply to every shard it opens.
func NewPool(router *Router, opts sqlite.Options, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Pool{
		router: router,
		opts:   opts,
		logger: logger,
		shards: make(map[string]*sqlite.Shard),
	}
}

// Acquire returns the shard for (date, kind), opening it on first use.
// An empty date means today.
func (p *Pool) Acquire(date string, kind types.StoreKind) (*sqlite.Shard, error) {
	path, err := p.router.Resolve(date, kind)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if shard, ok := p.shards[path]; ok {
		return shard, nil
	}
	shard, err := sqlite.Open(path, p.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShardUnavailable, path, err)
	}
	p.logger.Debug("opened shard", zap.String("path", path))
	p.shards[path] = shard
	return shard, nil
}

// Evict closes and forgets the shard at path if it is open. Safe to call for
// paths the pool never opened.
func (p *Pool) Evict(path string) error {
	p.mu.Lock()
	shard, ok := p.shards[path]
	delete(p.shards, path)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	if err := shard.Close(); err != nil {
		return fmt.Errorf("failed to close shard %s: %w", path, err)
	}
	return nil
}

// ReleaseAll closes every open shard. The pool remains usable afterwards;
// the next Acquire reopens.
func (p *Pool) ReleaseAll() error {
	p.mu.Lock()
	shards := p.shards
	p.shards = make(map[string]*sqlite.Shard)
	p.mu.Unlock()

	var firstErr error
	for path, shard := range shards {
		if err := shard.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close shard %s: %w", path, err)
		}
	}
	return firstErr
}

// Open returns the number of shards currently held open.
func (p *Pool) Open() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shards)
}
