package sqlite

import (
	"context"
	"fmt"

	"trendwatch/internal/titles"
)

// IsStoryPushed reports whether any item sharing the title's normalized form
// has already been pushed, regardless of source. Rows written before
// normalized titles were stored are matched through the same space-stripping
// applied in SQL.
func (s *Shard) IsStoryPushed(ctx context.Context, title string) (bool, error) {
	norm := titles.Normalize(title)
	if norm == "" {
		return false, nil
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM news_items
		 WHERE has_been_pushed = 1 AND normalized_title = ?`,
		norm).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check pushed story: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// Legacy rows have an empty normalized_title; compare their raw titles
	// with spaces stripped in SQL.
	legacy := titles.StripLegacy(title)
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM news_items
		 WHERE has_been_pushed = 1 AND normalized_title = ''
		   AND REPLACE(REPLACE(title, ' ', ''), '　', '') = ?`,
		legacy).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check pushed story (legacy): %w", err)
	}
	return n > 0, nil
}

// MarkStoryPushed flags every item of the logical story as pushed, across all
// sources, in one transaction. Legacy rows matched by stripped title get
// their normalized_title backfilled at the same time. The flag only ratchets
// up; nothing ever clears it. Returns the number of rows flagged.
func (s *Shard) MarkStoryPushed(ctx context.Context, title string) (int, error) {
	norm := titles.Normalize(title)
	if norm == "" {
		return 0, fmt.Errorf("title normalizes to empty: %q", title)
	}
	legacy := titles.StripLegacy(title)

	res, err := s.db.ExecContext(ctx,
		`UPDATE news_items
		 SET has_been_pushed = 1,
		     normalized_title = CASE WHEN normalized_title = '' THEN ? ELSE normalized_title END
		 WHERE normalized_title = ?
		    OR (normalized_title = '' AND REPLACE(REPLACE(title, ' ', ''), '　', '') = ?)`,
		norm, norm, legacy)
	if err != nil {
		return 0, fmt.Errorf("failed to mark story pushed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}
