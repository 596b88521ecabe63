// Package importance orchestrates at-most-once classification of news items
// and at-most-once notification of the important ones.
package importance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"trendwatch/internal/ai"
	"trendwatch/internal/config"
	"trendwatch/internal/notify"
	"trendwatch/internal/push"
	"trendwatch/internal/storage/sqlite"
	"trendwatch/internal/titles"
	"trendwatch/internal/types"
)

// reportKind tags push records written by annotation runs.
const reportKind = "importance"

// ErrRunInProgress is returned when an annotation run is already active on
// the gate's shard.
var ErrRunInProgress = errors.New("annotation run already in progress")

// ReportWriter archives dispatched reports on disk.
type ReportWriter interface {
	WriteReport(date, name, content string) (string, error)
}

// RunStats summarizes one annotation run.
type RunStats struct {
	Selected   int // items picked for classification
	Classified int // labels written
	Failed     int // items that could not be labeled
	Pushed     int // stories notified
}

// Gate runs annotation over a single shard. At most one run is active per
// gate at a time; concurrent attempts fail fast with ErrRunInProgress.
type Gate struct {
	shard      *sqlite.Shard
	date       string // shard date the run acts on; empty means today
	classifier ai.Classifier
	index      *push.Index
	dispatcher *notify.Dispatcher
	cfg        config.AnalysisConfig
	clock      types.Clock
	logger     *zap.Logger
	reports    ReportWriter // optional

	runMu sync.Mutex
}

// SetReportWriter enables on-disk archiving of dispatched reports.
func (g *Gate) SetReportWriter(w ReportWriter) {
	g.reports = w
}

// NewGate wires a gate over shard for the given date. dispatcher may have no
// channels, in which case runs classify but never notify. classifier may be
// nil for push-only gates; Run then refuses to start.
func NewGate(shard *sqlite.Shard, date string, classifier ai.Classifier, dispatcher *notify.Dispatcher,
	cfg config.AnalysisConfig, clock types.Clock, logger *zap.Logger) *Gate {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		shard:      shard,
		date:       date,
		classifier: classifier,
		index:      push.NewIndex(shard, logger),
		dispatcher: dispatcher,
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
	}
}

// SelectUnclassified picks the items worth classifying: no label yet, story
// not already pushed, one representative per story.
func (g *Gate) SelectUnclassified(ctx context.Context) ([]*types.NewsItem, error) {
	items, err := g.shard.Unclassified(ctx, g.cfg.MaxPerRun)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(items))
	var out []*types.NewsItem
	for _, item := range items {
		// Rows carried over from older shards can claim several observations
		// while recording only one; their state is stale, not classifiable.
		if item.Count > 1 && item.FirstSeen == item.LastSeen && len(item.RankTimeline) <= 1 {
			continue
		}

		key := item.NormalizedTitle
		if key == "" {
			key = titles.Normalize(item.Title)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		pushed, err := g.index.ShouldSuppress(ctx, item.Title)
		if err != nil {
			return nil, err
		}
		if pushed {
			// The story already went out; a label would never be acted on.
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Run executes one annotation pass: select, classify in batches, write labels,
// then notify important stories that were not pushed before.
func (g *Gate) Run(ctx context.Context) (RunStats, error) {
	if g.classifier == nil {
		return RunStats{}, errors.New("no classifier configured")
	}
	if !g.runMu.TryLock() {
		return RunStats{}, ErrRunInProgress
	}
	defer g.runMu.Unlock()

	var stats RunStats

	items, err := g.SelectUnclassified(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to select items: %w", err)
	}
	stats.Selected = len(items)
	if len(items) == 0 {
		g.logger.Info("nothing to classify")
		return stats, nil
	}

	for start := 0; start < len(items); start += g.cfg.BatchSize {
		end := start + g.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}
		classified, failed := g.classifyBatch(ctx, items[start:end])
		stats.Classified += classified
		stats.Failed += failed
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
	}

	pushed, err := g.pushImportant(ctx)
	if err != nil {
		// Classification results are already durable; a push failure does
		// not undo the run.
		g.logger.Error("push phase failed", zap.Error(err))
		return stats, err
	}
	stats.Pushed = pushed

	g.logger.Info("annotation run complete",
		zap.Int("selected", stats.Selected),
		zap.Int("classified", stats.Classified),
		zap.Int("failed", stats.Failed),
		zap.Int("pushed", stats.Pushed))
	return stats, nil
}

// PushPending runs only the notification phase: any already-labeled,
// unpushed important stories go out now. Used to drain stories left behind
// when a previous run classified them but failed to deliver.
func (g *Gate) PushPending(ctx context.Context) (int, error) {
	if !g.runMu.TryLock() {
		return 0, ErrRunInProgress
	}
	defer g.runMu.Unlock()
	return g.pushImportant(ctx)
}

// classifyBatch labels one batch, falling back to individual calls for items
// the batch call failed to cover.
func (g *Gate) classifyBatch(ctx context.Context, batch []*types.NewsItem) (classified, failed int) {
	labels, err := g.classifier.ClassifyBatch(ctx, batch)
	if err != nil {
		g.logger.Warn("batch classification failed, falling back to individual calls",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		labels = map[int]types.Importance{}
	}

	for i, item := range batch {
		label, ok := labels[i]
		if !ok {
			label, err = g.classifier.ClassifyOne(ctx, item)
			if err != nil {
				g.logger.Warn("classification failed",
					zap.String("title", item.Title),
					zap.Error(err))
				failed++
				continue
			}
		}

		wrote, err := g.shard.SetImportance(ctx, item.Title, item.SourceID, label)
		if err != nil {
			g.logger.Error("failed to store label",
				zap.String("title", item.Title),
				zap.Error(err))
			failed++
			continue
		}
		if !wrote {
			// Another run labeled it first; the stored label wins.
			g.logger.Debug("label already present, keeping existing",
				zap.String("title", item.Title))
		}
		classified++
	}
	return classified, failed
}

// pushImportant notifies unpushed stories whose label is in the configured
// push levels. A story is marked pushed only after at least one channel
// accepted the report.
func (g *Gate) pushImportant(ctx context.Context) (int, error) {
	if g.dispatcher == nil || !g.dispatcher.HasChannels() {
		return 0, nil
	}

	levels := make(map[types.Importance]bool, len(g.cfg.PushLevels))
	for _, l := range g.cfg.PushLevels {
		levels[types.Importance(l)] = true
	}

	candidates, err := g.shard.UnpushedImportant(ctx, levels, g.cfg.MaxPushPerRun)
	if err != nil {
		return 0, fmt.Errorf("failed to query push candidates: %w", err)
	}
	candidates, err = g.index.FilterUnpushed(ctx, candidates)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	// Report and push record go under the date being analyzed, not the day
	// the run happens to execute.
	date := g.date
	if date == "" {
		date = g.clock.Now().Format("2006-01-02")
	}
	report := notify.RenderReport(date, candidates)

	results, err := g.dispatcher.Dispatch(ctx, report)
	if err != nil {
		return 0, fmt.Errorf("dispatch failed: %w", err)
	}
	delivered := false
	for _, ok := range results {
		if ok {
			delivered = true
			break
		}
	}
	if !delivered {
		return 0, nil
	}

	if g.reports != nil {
		if _, err := g.reports.WriteReport(date, reportKind, report); err != nil {
			// The archive is a convenience copy; delivery already happened.
			g.logger.Warn("failed to archive report", zap.Error(err))
		}
	}

	for _, item := range candidates {
		if err := g.index.MarkPushed(ctx, item.Title); err != nil {
			return 0, err
		}
	}
	if err := g.shard.RecordPush(ctx, reportKind, date, g.clock.Now()); err != nil {
		return 0, err
	}
	return len(candidates), nil
}
