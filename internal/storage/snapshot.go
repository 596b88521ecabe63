package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trendwatch/internal/types"
)

// WriteTXTSnapshot writes a human-readable per-crawl artifact alongside the
// database shards, under txt/<date>/<HHMM>.txt. It is a convenience dump for
// eyeballing a crawl; the database remains the source of truth.
func (r *Router) WriteTXTSnapshot(snap *types.Snapshot) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	dir := filepath.Join(r.dataDir, "txt", snap.Date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := time.Unix(snap.Timestamp, 0).Format("1504") + ".txt"
	path := filepath.Join(dir, name)

	var b strings.Builder
	sourceIDs := make([]string, 0, len(snap.Items))
	for id := range snap.Items {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	for i, id := range sourceIDs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s | %s\n", id, snap.SourceName(id))
		for _, e := range snap.Items[id] {
			fmt.Fprintf(&b, "%d. %s", e.Rank, e.Title)
			if e.URL != "" {
				fmt.Fprintf(&b, " [URL:%s]", e.URL)
			}
			if e.MobileURL != "" {
				fmt.Fprintf(&b, " [MOBILE:%s]", e.MobileURL)
			}
			b.WriteString("\n")
		}
	}
	if len(snap.FailedIDs) > 0 {
		fmt.Fprintf(&b, "\nfailed: %s\n", strings.Join(snap.FailedIDs, ", "))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return path, nil
}

// WriteReport archives a rendered notification report under
// reports/<date>/<name>.txt. Re-dispatching the same report kind on the same
// date overwrites the previous archive.
func (r *Router) WriteReport(date, name, content string) (string, error) {
	dir := filepath.Join(r.dataDir, "reports", date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, name+".txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
