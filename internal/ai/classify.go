package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"trendwatch/internal/types"
)

const classifyPrompt = `You rate trending news headlines by importance.

Labels, in descending order of importance:
- critical: major breaking events with broad real-world impact
- high: significant developments most readers should know about
- medium: notable but routine news
- low: entertainment, gossip, minor or local interest

Headlines:
%s

Respond with a JSON array only, one element per headline:
[{"index": 1, "importance": "high"}, ...]
Use the 1-based index shown with each headline. Every headline must appear exactly once.`

// ClassifyBatch labels a batch of items in one API call. The returned map is
// keyed by position in items; positions the model skipped or answered with an
// unknown label are absent so the caller can fall back to individual calls.
func (c *Client) ClassifyBatch(ctx context.Context, items []*types.NewsItem) (map[int]types.Importance, error) {
	if len(items) == 0 {
		return map[int]types.Importance{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	var lines strings.Builder
	for i, item := range items {
		fmt.Fprintf(&lines, "%d. [%s] %s\n", i+1, item.SourceName, item.Title)
	}
	prompt := fmt.Sprintf(classifyPrompt, lines.String())

	text, err := c.complete(ctx, "classify_batch", prompt)
	if err != nil {
		return nil, err
	}

	var parsed []Classification
	if err := parseJSON(text, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse batch classification: %w", err)
	}

	result := make(map[int]types.Importance, len(parsed))
	for _, cl := range parsed {
		idx := cl.Index - 1
		if idx < 0 || idx >= len(items) {
			c.logger.Warn("classification index out of range",
				zap.Int("index", cl.Index),
				zap.Int("batch_size", len(items)))
			continue
		}
		if !cl.Importance.IsValid() {
			c.logger.Warn("unknown importance label",
				zap.String("label", string(cl.Importance)),
				zap.String("title", items[idx].Title))
			continue
		}
		result[idx] = cl.Importance
	}
	return result, nil
}

// ClassifyOne labels a single item. Used as the fallback when a batch call
// fails or leaves gaps.
func (c *Client) ClassifyOne(ctx context.Context, item *types.NewsItem) (types.Importance, error) {
	var lines strings.Builder
	fmt.Fprintf(&lines, "1. [%s] %s\n", item.SourceName, item.Title)
	prompt := fmt.Sprintf(classifyPrompt, lines.String())

	text, err := c.complete(ctx, "classify_one", prompt)
	if err != nil {
		return types.ImportanceUnset, err
	}

	var parsed []Classification
	if err := parseJSON(text, &parsed); err != nil {
		return types.ImportanceUnset, fmt.Errorf("failed to parse classification: %w", err)
	}
	for _, cl := range parsed {
		if cl.Index == 1 && cl.Importance.IsValid() {
			return cl.Importance, nil
		}
	}
	return types.ImportanceUnset, fmt.Errorf("no valid label for %q", item.Title)
}

// complete runs one message exchange with retry and returns the text reply.
func (c *Client) complete(ctx context.Context, operation, prompt string) (string, error) {
	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: 2048,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return text.String(), nil
}
