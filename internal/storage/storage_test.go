package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendwatch/internal/storage/sqlite"
	"trendwatch/internal/types"
)

func TestRouterResolve(t *testing.T) {
	r := NewRouter("/data", types.FixedClock{T: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)})

	path, err := r.Resolve("2025-03-15", types.KindNews)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "news", "2025-03.db"), path)

	path, err = r.Resolve("2025-12-01", types.KindFeed)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "feed", "2025-12.db"), path)

	// Empty date falls back to the clock.
	path, err = r.Resolve("", types.KindNews)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "news", "2025-03.db"), path)

	_, err = r.Resolve("2025-13-01", types.KindNews)
	assert.Error(t, err)
	_, err = r.Resolve("2025-03-15", types.StoreKind("bogus"))
	assert.Error(t, err)
}

func TestPoolCachesShards(t *testing.T) {
	r := NewRouter(t.TempDir(), types.FixedClock{T: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)})
	p := NewPool(r, sqlite.Options{}, nil)
	defer p.ReleaseAll()

	a, err := p.Acquire("2025-03-01", types.KindNews)
	require.NoError(t, err)
	b, err := p.Acquire("2025-03-31", types.KindNews)
	require.NoError(t, err)
	assert.Same(t, a, b, "same month resolves to the same shard")

	c, err := p.Acquire("2025-04-01", types.KindNews)
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	d, err := p.Acquire("2025-03-01", types.KindFeed)
	require.NoError(t, err)
	assert.NotSame(t, a, d, "kinds never share a shard")

	assert.Equal(t, 3, p.Open())
}

func TestPoolEvictAndReleaseAll(t *testing.T) {
	r := NewRouter(t.TempDir(), types.FixedClock{T: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)})
	p := NewPool(r, sqlite.Options{}, nil)

	shard, err := p.Acquire("2025-03-01", types.KindNews)
	require.NoError(t, err)

	require.NoError(t, p.Evict(shard.Path()))
	assert.Equal(t, 0, p.Open())
	// Evicting an unknown path is a no-op.
	require.NoError(t, p.Evict("/nowhere/2020-01.db"))

	// The pool reopens after eviction.
	again, err := p.Acquire("2025-03-01", types.KindNews)
	require.NoError(t, err)
	assert.NotSame(t, shard, again)

	require.NoError(t, p.ReleaseAll())
	assert.Equal(t, 0, p.Open())
	_, err = p.Acquire("2025-03-01", types.KindNews)
	require.NoError(t, err)
}

func TestAcquireBadDate(t *testing.T) {
	r := NewRouter(t.TempDir(), nil)
	p := NewPool(r, sqlite.Options{}, nil)
	defer p.ReleaseAll()

	_, err := p.Acquire("not-a-date", types.KindNews)
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	r := NewRouter(dir, nil)

	path, err := r.WriteReport("2025-03-15", "importance", "report body")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "2025-03-15", "importance.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(data))

	// Overwrites on re-dispatch.
	_, err = r.WriteReport("2025-03-15", "importance", "second")
	require.NoError(t, err)
	data, _ = os.ReadFile(path)
	assert.Equal(t, "second", string(data))
}

func TestWriteTXTSnapshot(t *testing.T) {
	dir := t.TempDir()
	r := NewRouter(dir, nil)

	ts := time.Date(2025, 3, 15, 9, 30, 0, 0, time.Local)
	snap := &types.Snapshot{
		Kind:      types.KindNews,
		Date:      "2025-03-15",
		Timestamp: ts.Unix(),
		Items: map[string][]types.RankedEntry{
			"hn": {{Title: "story", Rank: 1, URL: "https://a"}},
		},
		Names:     map[string]string{"hn": "Hacker News"},
		FailedIDs: []string{"wb"},
	}

	path, err := r.WriteTXTSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "txt", "2025-03-15", "0930.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "hn | Hacker News")
	assert.Contains(t, out, "1. story [URL:https://a]")
	assert.Contains(t, out, "failed: wb")
}
