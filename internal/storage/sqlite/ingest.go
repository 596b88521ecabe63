package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trendwatch/internal/titles"
	"trendwatch/internal/types"
)

// SaveSnapshot merges one crawl cycle into the shard. Each source's list is
// written in its own transaction so a failing source does not poison the
// others; sources that failed to fetch are skipped entirely and their items
// keep their previous state.
func (s *Shard) SaveSnapshot(ctx context.Context, snap *types.Snapshot, offListCycles int) (types.IngestStats, error) {
	var stats types.IngestStats

	if err := snap.Validate(); err != nil {
		return stats, fmt.Errorf("validation failed: %w", err)
	}
	if offListCycles < 1 {
		offListCycles = 1
	}

	if err := s.registerCrawl(ctx, snap); err != nil {
		return stats, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for sourceID, entries := range snap.Items {
		sourceID, entries := sourceID, entries
		g.Go(func() error {
			src, err := s.saveSource(gctx, snap, sourceID, entries)
			if err != nil {
				return fmt.Errorf("source %s: %w", sourceID, err)
			}
			mu.Lock()
			stats.New += src.New
			stats.Updated += src.Updated
			stats.Unchanged += src.Unchanged
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	offList, err := s.countOffList(ctx, snap, offListCycles)
	if err != nil {
		return stats, err
	}
	stats.OffList = offList

	s.logger.Info("snapshot merged",
		zap.String("kind", string(snap.Kind)),
		zap.String("date", snap.Date),
		zap.Int("new", stats.New),
		zap.Int("updated", stats.Updated),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("off_list", stats.OffList))
	return stats, nil
}

// registerCrawl records the crawl time and refreshes source display names.
func (s *Shard) registerCrawl(ctx context.Context, snap *types.Snapshot) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO crawls (crawl_time, date) VALUES (?, ?)`,
		snap.Timestamp, snap.Date); err != nil {
		return fmt.Errorf("failed to record crawl: %w", err)
	}
	for id := range snap.Items {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO sources (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			id, snap.SourceName(id)); err != nil {
			return fmt.Errorf("failed to upsert source %s: %w", id, err)
		}
	}
	return nil
}

// saveSource merges one source's ranked list in a single transaction.
func (s *Shard) saveSource(ctx context.Context, snap *types.Snapshot, sourceID string, entries []types.RankedEntry) (types.IngestStats, error) {
	var stats types.IngestStats

	// Acquire a dedicated connection for the transaction. We need raw SQL
	// ("BEGIN IMMEDIATE", "COMMIT") on a single connection; database/sql's
	// pool would otherwise spread the statements over different connections.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// IMMEDIATE acquires the write lock up front so concurrent source writers
	// serialize here instead of failing mid-transaction. The sqlite3 driver's
	// BeginTx always uses DEFERRED mode, hence raw Exec.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return stats, fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	for _, e := range entries {
		changed, isNew, err := mergeEntry(ctx, conn, snap.Timestamp, sourceID, e)
		if err != nil {
			return stats, err
		}
		switch {
		case isNew:
			stats.New++
		case changed:
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return stats, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true
	return stats, nil
}

// mergeEntry inserts or updates a single (title, source) row. It reports
// whether the row was new, and for existing rows whether the observation
// changed the rank or URL as opposed to a pure re-observation.
func mergeEntry(ctx context.Context, conn *sql.Conn, ts int64, sourceID string, e types.RankedEntry) (changed, isNew bool, err error) {
	var (
		id          int64
		oldRank     int
		oldURL      string
		oldMobile   string
		timelineRaw string
		count       int
	)
	err = conn.QueryRowContext(ctx,
		`SELECT id, rank, url, mobile_url, rank_timeline, count
		 FROM news_items WHERE title = ? AND source_id = ?`,
		e.Title, sourceID).Scan(&id, &oldRank, &oldURL, &oldMobile, &timelineRaw, &count)

	if err == sql.ErrNoRows {
		timeline, merr := json.Marshal([]types.RankEntry{{Timestamp: ts, Rank: e.Rank}})
		if merr != nil {
			return false, false, fmt.Errorf("failed to marshal timeline: %w", merr)
		}
		_, err = conn.ExecContext(ctx,
			`INSERT INTO news_items
			 (title, source_id, url, mobile_url, rank, rank_timeline,
			  first_seen, last_seen, count, normalized_title)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			e.Title, sourceID, e.URL, e.MobileURL, e.Rank, string(timeline),
			ts, ts, titles.Normalize(e.Title))
		if err != nil {
			return false, false, fmt.Errorf("failed to insert %q: %w", e.Title, err)
		}
		return false, true, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to look up %q: %w", e.Title, err)
	}

	var timeline []types.RankEntry
	if err := json.Unmarshal([]byte(timelineRaw), &timeline); err != nil {
		return false, false, fmt.Errorf("corrupt rank timeline for %q: %w", e.Title, err)
	}
	timeline = append(timeline, types.RankEntry{Timestamp: ts, Rank: e.Rank})
	raw, err := json.Marshal(timeline)
	if err != nil {
		return false, false, fmt.Errorf("failed to marshal timeline: %w", err)
	}

	changed = e.Rank != oldRank || (e.URL != "" && e.URL != oldURL)

	url := oldURL
	if e.URL != "" {
		url = e.URL
	}
	mobile := oldMobile
	if e.MobileURL != "" {
		mobile = e.MobileURL
	}

	_, err = conn.ExecContext(ctx,
		`UPDATE news_items
		 SET rank = ?, url = ?, mobile_url = ?, rank_timeline = ?,
		     last_seen = ?, count = count + 1,
		     normalized_title = CASE WHEN normalized_title = '' THEN ? ELSE normalized_title END
		 WHERE id = ?`,
		e.Rank, url, mobile, string(raw), ts, titles.Normalize(e.Title), id)
	if err != nil {
		return false, false, fmt.Errorf("failed to update %q: %w", e.Title, err)
	}
	return changed, false, nil
}

// countOffList counts items of crawled sources whose last observation predates
// the Nth most recent crawl of the day. Sources that failed to fetch this
// cycle are not penalized.
func (s *Shard) countOffList(ctx context.Context, snap *types.Snapshot, cycles int) (int, error) {
	var threshold int64
	err := s.db.QueryRowContext(ctx,
		`SELECT crawl_time FROM crawls WHERE date = ?
		 ORDER BY crawl_time DESC LIMIT 1 OFFSET ?`,
		snap.Date, cycles-1).Scan(&threshold)
	if err == sql.ErrNoRows {
		// Fewer crawls than the cycle window: nothing can be off-list yet.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find off-list threshold: %w", err)
	}

	if len(snap.Items) == 0 {
		return 0, nil
	}
	placeholders := make([]string, 0, len(snap.Items))
	args := make([]interface{}, 0, len(snap.Items)+1)
	for id := range snap.Items {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	args = append(args, threshold)

	var n int
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM news_items
		 WHERE source_id IN (%s) AND last_seen < ?`,
		strings.Join(placeholders, ","))
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count off-list items: %w", err)
	}
	return n, nil
}
