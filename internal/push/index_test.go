package push

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendwatch/internal/storage/sqlite"
	"trendwatch/internal/types"
)

func newTestIndex(t *testing.T) (*Index, *sqlite.Shard) {
	t.Helper()
	shard, err := sqlite.Open(filepath.Join(t.TempDir(), "2025-03.db"), sqlite.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { shard.Close() })
	return NewIndex(shard, nil), shard
}

func seed(t *testing.T, shard *sqlite.Shard, items map[string][]types.RankedEntry) {
	t.Helper()
	snap := &types.Snapshot{
		Kind:      types.KindNews,
		Date:      "2025-03-15",
		Timestamp: 1000,
		Items:     items,
	}
	_, err := shard.SaveSnapshot(context.Background(), snap, 2)
	require.NoError(t, err)
}

func TestSuppressAfterMark(t *testing.T) {
	idx, shard := newTestIndex(t)
	ctx := context.Background()
	seed(t, shard, map[string][]types.RankedEntry{
		"hn": {{Title: "story one", Rank: 1}},
	})

	suppress, err := idx.ShouldSuppress(ctx, "story one")
	require.NoError(t, err)
	assert.False(t, suppress)

	require.NoError(t, idx.MarkPushed(ctx, "story one"))

	suppress, err = idx.ShouldSuppress(ctx, "story one")
	require.NoError(t, err)
	assert.True(t, suppress)

	// Another source's spelling of the same story is also suppressed.
	suppress, err = idx.ShouldSuppress(ctx, " story　one ")
	require.NoError(t, err)
	assert.True(t, suppress)
}

func TestFilterUnpushed(t *testing.T) {
	idx, shard := newTestIndex(t)
	ctx := context.Background()
	seed(t, shard, map[string][]types.RankedEntry{
		"hn": {{Title: "pushed already", Rank: 1}, {Title: "fresh", Rank: 2}},
		"wb": {{Title: "pushed already ", Rank: 3}},
	})
	require.NoError(t, idx.MarkPushed(ctx, "pushed already"))

	items := []*types.NewsItem{
		{Title: "pushed already", SourceID: "hn", NormalizedTitle: "pushedalready"},
		{Title: "fresh", SourceID: "hn", NormalizedTitle: "fresh"},
		{Title: "fresh ", SourceID: "wb"}, // same story, batch duplicate
	}
	out, err := idx.FilterUnpushed(ctx, items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "fresh", out[0].Title)
	assert.Equal(t, "hn", out[0].SourceID)
}
