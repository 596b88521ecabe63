package types

import (
	"fmt"
	"time"
)

// StoreKind selects which item family a shard holds. The two families share
// one schema and one code path; they are only kept in separate shard files.
type StoreKind string

const (
	KindNews StoreKind = "news" // ranked hot-list items
	KindFeed StoreKind = "feed" // feed/RSS items
)

// IsValid checks if the store kind value is valid
func (k StoreKind) IsValid() bool {
	switch k {
	case KindNews, KindFeed:
		return true
	}
	return false
}

// Importance is the classification label assigned by the external classifier.
// Empty means "not yet classified".
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
	ImportanceUnset    Importance = ""
)

// IsValid checks if the importance value is a definite label
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

// RankEntry is one observation of an item's rank at a point in time.
// The rank timeline is append-only: entries are never removed or reordered.
type RankEntry struct {
	Timestamp int64 `json:"ts"` // unix seconds
	Rank      int   `json:"rank"`
}

// NewsItem is a unique (title, source) pair within one shard.
type NewsItem struct {
	Title           string      `json:"title"`
	SourceID        string      `json:"source_id"`
	SourceName      string      `json:"source_name,omitempty"`
	URL             string      `json:"url,omitempty"`
	MobileURL       string      `json:"mobile_url,omitempty"`
	Rank            int         `json:"rank"`
	RankTimeline    []RankEntry `json:"rank_timeline,omitempty"`
	FirstSeen       int64       `json:"first_seen"`
	LastSeen        int64       `json:"last_seen"`
	Count           int         `json:"count"`
	Importance      Importance  `json:"importance,omitempty"`
	NormalizedTitle string      `json:"normalized_title,omitempty"`
	Pushed          bool        `json:"pushed"`
}

// Validate checks if the item has valid field values
func (n *NewsItem) Validate() error {
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if n.SourceID == "" {
		return fmt.Errorf("source_id is required")
	}
	if n.Rank < 1 {
		return fmt.Errorf("rank must be positive (got %d)", n.Rank)
	}
	if n.Importance != ImportanceUnset && !n.Importance.IsValid() {
		return fmt.Errorf("invalid importance: %s", n.Importance)
	}
	return nil
}

// RankedEntry is one item of a source's ranked list inside a Snapshot,
// before it has been merged into a shard.
type RankedEntry struct {
	Title     string `json:"title"`
	Rank      int    `json:"rank"`
	URL       string `json:"url,omitempty"`
	MobileURL string `json:"mobile_url,omitempty"`
}

// Snapshot is one crawl cycle's payload across all sources. It is produced by
// the fetch collaborator and consumed exactly once by the ingestor.
type Snapshot struct {
	Kind      StoreKind                `json:"kind"`
	Date      string                   `json:"date"`       // YYYY-MM-DD
	Timestamp int64                    `json:"timestamp"`  // unix seconds of the crawl
	Items     map[string][]RankedEntry `json:"items"`      // source-id -> ranked list
	Names     map[string]string        `json:"names"`      // source-id -> display name
	FailedIDs []string                 `json:"failed_ids"` // sources that failed to fetch
}

// Validate checks if the snapshot has valid field values
func (s *Snapshot) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("invalid store kind: %s", s.Kind)
	}
	if s.Date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", s.Date, err)
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("timestamp must be positive (got %d)", s.Timestamp)
	}
	for sourceID, entries := range s.Items {
		if sourceID == "" {
			return fmt.Errorf("empty source id in items")
		}
		for _, e := range entries {
			if e.Title == "" {
				return fmt.Errorf("source %s: entry with empty title", sourceID)
			}
			if e.Rank < 1 {
				return fmt.Errorf("source %s: entry %q has non-positive rank %d", sourceID, e.Title, e.Rank)
			}
		}
	}
	return nil
}

// SourceName resolves a source id to its display name, falling back to the id.
func (s *Snapshot) SourceName(sourceID string) string {
	if name, ok := s.Names[sourceID]; ok && name != "" {
		return name
	}
	return sourceID
}

// IngestStats reports the outcome of merging one snapshot into a shard.
type IngestStats struct {
	New       int // items inserted for the first time
	Updated   int // existing items whose rank or URL changed
	Unchanged int // pure re-observations (timeline still advanced)
	OffList   int // items absent beyond the configured cycle threshold
}

// Total returns the number of snapshot entries that were merged.
func (s IngestStats) Total() int {
	return s.New + s.Updated + s.Unchanged
}

// PushRecord marks that a notification batch for a date has been dispatched.
type PushRecord struct {
	ReportKind string    `json:"report_kind"`
	PushedAt   time.Time `json:"pushed_at"`
	Date       string    `json:"date"`
}
