// Package push tracks which logical stories have already been notified.
// Identity is the normalized title, so the same story surfacing on several
// sources is pushed at most once.
package push

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"trendwatch/internal/storage/sqlite"
	"trendwatch/internal/titles"
	"trendwatch/internal/types"
)

// Index answers "was this story already pushed?" against one shard.
type Index struct {
	shard  *sqlite.Shard
	logger *zap.Logger
}

// NewIndex creates an index over shard.
func NewIndex(shard *sqlite.Shard, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{shard: shard, logger: logger}
}

// ShouldSuppress reports whether a notification for title must be withheld
// because the story was already pushed, by any source.
func (i *Index) ShouldSuppress(ctx context.Context, title string) (bool, error) {
	pushed, err := i.shard.IsStoryPushed(ctx, title)
	if err != nil {
		return false, fmt.Errorf("failed to check push index: %w", err)
	}
	return pushed, nil
}

// MarkPushed flags the story as pushed across all its source rows. The flag
// never clears once set.
func (i *Index) MarkPushed(ctx context.Context, title string) error {
	n, err := i.shard.MarkStoryPushed(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to mark story pushed: %w", err)
	}
	i.logger.Debug("story marked pushed",
		zap.String("title", title),
		zap.Int("rows", n))
	return nil
}

// FilterUnpushed drops items whose story was already pushed, and collapses
// duplicates of the same story within the batch itself, keeping the first
// (highest-priority) occurrence.
func (i *Index) FilterUnpushed(ctx context.Context, items []*types.NewsItem) ([]*types.NewsItem, error) {
	seen := make(map[string]bool, len(items))
	var out []*types.NewsItem
	for _, item := range items {
		key := item.NormalizedTitle
		if key == "" {
			key = titles.Normalize(item.Title)
		}
		if seen[key] {
			continue
		}
		suppress, err := i.ShouldSuppress(ctx, item.Title)
		if err != nil {
			return nil, err
		}
		if suppress {
			i.logger.Debug("story already pushed, suppressing",
				zap.String("title", item.Title),
				zap.String("source", item.SourceID))
			seen[key] = true
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out, nil
}
