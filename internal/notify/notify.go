// Package notify dispatches notification reports to outbound channels.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trendwatch/internal/types"
)

// Channel delivers one rendered report to an external destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, report string) error
}

// Dispatcher fans a report out to every configured channel. Channel failures
// are independent: one failing endpoint never blocks the others.
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over channels.
func NewDispatcher(channels []Channel, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{channels: channels, logger: logger}
}

// HasChannels reports whether any channel is configured.
func (d *Dispatcher) HasChannels() bool {
	return len(d.channels) > 0
}

// Dispatch sends the report to every channel and returns per-channel success.
// The returned error is non-nil only when every channel failed.
func (d *Dispatcher) Dispatch(ctx context.Context, report string) (map[string]bool, error) {
	results := make(map[string]bool, len(d.channels))
	failures := 0
	for _, ch := range d.channels {
		if err := ch.Send(ctx, report); err != nil {
			d.logger.Warn("channel send failed",
				zap.String("channel", ch.Name()),
				zap.Error(err))
			results[ch.Name()] = false
			failures++
			continue
		}
		results[ch.Name()] = true
	}
	if len(d.channels) > 0 && failures == len(d.channels) {
		return results, fmt.Errorf("all %d channels failed", failures)
	}
	return results, nil
}

// RenderReport formats a batch of important items as a plain-text report.
func RenderReport(date string, items []*types.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trending alerts for %s\n\n", date)
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, item.Importance, item.Title, item.SourceName)
		if item.URL != "" {
			fmt.Fprintf(&b, "   %s\n", item.URL)
		}
	}
	return b.String()
}
