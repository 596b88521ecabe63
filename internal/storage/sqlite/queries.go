package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"trendwatch/internal/types"
)

const itemColumns = `n.title, n.source_id, COALESCE(s.name, n.source_id),
	n.url, n.mobile_url, n.rank, n.rank_timeline, n.first_seen, n.last_seen,
	n.count, n.importance, n.normalized_title, n.has_been_pushed`

func scanItem(row interface{ Scan(...interface{}) error }) (*types.NewsItem, error) {
	var (
		item        types.NewsItem
		timelineRaw string
		importance  string
		pushed      int
	)
	err := row.Scan(&item.Title, &item.SourceID, &item.SourceName,
		&item.URL, &item.MobileURL, &item.Rank, &timelineRaw,
		&item.FirstSeen, &item.LastSeen, &item.Count,
		&importance, &item.NormalizedTitle, &pushed)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(timelineRaw), &item.RankTimeline); err != nil {
		return nil, fmt.Errorf("corrupt rank timeline for %q: %w", item.Title, err)
	}
	item.Importance = types.Importance(importance)
	item.Pushed = pushed != 0
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*types.NewsItem, error) {
	defer rows.Close()
	var items []*types.NewsItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Unclassified returns up to limit items that have no importance label yet,
// most recently seen first.
func (s *Shard) Unclassified(ctx context.Context, limit int) ([]*types.NewsItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM news_items n LEFT JOIN sources s ON s.id = n.source_id
		 WHERE n.importance = '' OR n.importance IS NULL
		 ORDER BY n.last_seen DESC, n.rank ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclassified items: %w", err)
	}
	return collectItems(rows)
}

// SetImportance records the classification for a (title, source) pair. The
// write is guarded: a row that already carries a label is never relabeled.
// Returns true if this call performed the write.
func (s *Shard) SetImportance(ctx context.Context, title, sourceID string, imp types.Importance) (bool, error) {
	if !imp.IsValid() {
		return false, fmt.Errorf("invalid importance: %s", imp)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE news_items SET importance = ?
		 WHERE title = ? AND source_id = ?
		   AND (importance = '' OR importance IS NULL)`,
		string(imp), title, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to set importance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// UnpushedImportant returns unpushed items whose label is in levels, ordered
// critical first, then high, then by current rank.
func (s *Shard) UnpushedImportant(ctx context.Context, levels map[types.Importance]bool, limit int) ([]*types.NewsItem, error) {
	if len(levels) == 0 {
		return nil, nil
	}
	placeholders := ""
	args := make([]interface{}, 0, len(levels)+1)
	for l := range levels {
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, string(l))
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM news_items n LEFT JOIN sources s ON s.id = n.source_id
		 WHERE n.has_been_pushed = 0 AND n.importance IN (`+placeholders+`)
		 ORDER BY CASE n.importance
		     WHEN 'critical' THEN 1
		     WHEN 'high' THEN 2
		     WHEN 'medium' THEN 3
		     ELSE 4 END,
		   n.rank ASC
		 LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpushed items: %w", err)
	}
	return collectItems(rows)
}

// Items returns every item for one source, most recently seen first.
func (s *Shard) Items(ctx context.Context, sourceID string) ([]*types.NewsItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM news_items n LEFT JOIN sources s ON s.id = n.source_id
		 WHERE n.source_id = ?
		 ORDER BY n.last_seen DESC, n.rank ASC`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for %s: %w", sourceID, err)
	}
	return collectItems(rows)
}

// Item looks up a single (title, source) row.
func (s *Shard) Item(ctx context.Context, title, sourceID string) (*types.NewsItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM news_items n LEFT JOIN sources s ON s.id = n.source_id
		 WHERE n.title = ? AND n.source_id = ?`, title, sourceID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item %q: %w", title, err)
	}
	return item, nil
}

// CrawlTimes returns the recorded crawl timestamps for a date, newest first.
func (s *Shard) CrawlTimes(ctx context.Context, date string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT crawl_time FROM crawls WHERE date = ? ORDER BY crawl_time DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawls: %w", err)
	}
	defer rows.Close()
	var times []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// HasPushRecord reports whether a report of the given kind was already
// dispatched for the date.
func (s *Shard) HasPushRecord(ctx context.Context, reportKind, date string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM push_records WHERE report_kind = ? AND date = ?`,
		reportKind, date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check push record: %w", err)
	}
	return n > 0, nil
}

// RecordPush appends a dispatch record for the date.
func (s *Shard) RecordPush(ctx context.Context, reportKind, date string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_records (report_kind, pushed_at, date) VALUES (?, ?, ?)`,
		reportKind, at.Unix(), date)
	if err != nil {
		return fmt.Errorf("failed to record push: %w", err)
	}
	return nil
}
