package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewsItemValidate(t *testing.T) {
	valid := NewsItem{Title: "story", SourceID: "hn", Rank: 1}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*NewsItem)
	}{
		{"empty title", func(n *NewsItem) { n.Title = "" }},
		{"empty source", func(n *NewsItem) { n.SourceID = "" }},
		{"zero rank", func(n *NewsItem) { n.Rank = 0 }},
		{"bogus importance", func(n *NewsItem) { n.Importance = "urgent" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid
			tt.mutate(&item)
			assert.Error(t, item.Validate())
		})
	}
}

func TestSnapshotValidate(t *testing.T) {
	valid := Snapshot{
		Kind:      KindNews,
		Date:      "2025-03-15",
		Timestamp: 1000,
		Items:     map[string][]RankedEntry{"hn": {{Title: "a", Rank: 1}}},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"bad kind", func(s *Snapshot) { s.Kind = "rss" }},
		{"empty date", func(s *Snapshot) { s.Date = "" }},
		{"malformed date", func(s *Snapshot) { s.Date = "15-03-2025" }},
		{"zero timestamp", func(s *Snapshot) { s.Timestamp = 0 }},
		{"entry without title", func(s *Snapshot) {
			s.Items = map[string][]RankedEntry{"hn": {{Rank: 1}}}
		}},
		{"entry with zero rank", func(s *Snapshot) {
			s.Items = map[string][]RankedEntry{"hn": {{Title: "a"}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid
			tt.mutate(&snap)
			assert.Error(t, snap.Validate())
		})
	}
}

func TestSnapshotSourceName(t *testing.T) {
	snap := Snapshot{Names: map[string]string{"hn": "Hacker News"}}
	assert.Equal(t, "Hacker News", snap.SourceName("hn"))
	assert.Equal(t, "wb", snap.SourceName("wb"))
}

func TestImportanceAndKind(t *testing.T) {
	assert.True(t, ImportanceCritical.IsValid())
	assert.True(t, ImportanceLow.IsValid())
	assert.False(t, ImportanceUnset.IsValid())
	assert.False(t, Importance("urgent").IsValid())

	assert.True(t, KindNews.IsValid())
	assert.True(t, KindFeed.IsValid())
	assert.False(t, StoreKind("rss").IsValid())
}

func TestIngestStatsTotal(t *testing.T) {
	s := IngestStats{New: 2, Updated: 3, Unchanged: 5, OffList: 7}
	assert.Equal(t, 10, s.Total(), "off-list items were not merged")
}
