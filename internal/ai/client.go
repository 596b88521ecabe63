// Package ai classifies news items by importance using the Anthropic API.
package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"trendwatch/internal/types"
)

const (
	// ModelDefault is the cost-efficient model used for title classification.
	ModelDefault = "claude-3-5-haiku-20241022"

	// ModelReasoning is available for callers that want deeper analysis.
	ModelReasoning = "claude-sonnet-4-5-20250929"
)

// GetDefaultModel returns the classification model, checking TRENDWATCH_MODEL first.
func GetDefaultModel() string {
	if model := os.Getenv("TRENDWATCH_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// Classification is one item's label as returned by the model.
type Classification struct {
	Index      int              `json:"index"`
	Importance types.Importance `json:"importance"`
}

// Classifier assigns importance labels to news items.
type Classifier interface {
	// ClassifyBatch labels a batch in one call. The result maps positions in
	// items to labels; entries the model skipped or mislabeled are absent.
	ClassifyBatch(ctx context.Context, items []*types.NewsItem) (map[int]types.Importance, error)
	// ClassifyOne labels a single item.
	ClassifyOne(ctx context.Context, item *types.NewsItem) (types.Importance, error)
}

// Client is the Anthropic-backed Classifier.
type Client struct {
	client  *anthropic.Client
	model   string
	retry   RetryConfig
	sem     *semaphore.Weighted // limits concurrent API calls
	limiter *rate.Limiter       // paces successive batch calls
	logger  *zap.Logger
}

var _ Classifier = (*Client)(nil)

// Config holds classifier client configuration.
type Config struct {
	APIKey             string // if empty, reads ANTHROPIC_API_KEY
	Model              string
	MaxConcurrentCalls int
	Retry              RetryConfig
	Logger             *zap.Logger
}

// NewClient creates an Anthropic-backed classifier.
func NewClient(cfg *Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var sem *semaphore.Weighted
	if cfg.MaxConcurrentCalls > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls))
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  model,
		retry:  retry,
		sem:    sem,
		// Successive batches are paced rather than fired back to back; the
		// burst of 1 makes the first call free.
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
		logger:  logger,
	}, nil
}
