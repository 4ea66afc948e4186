// Package llm wraps the OpenAI chat-completion and moderation APIs behind
// the domain interfaces every pipeline stage depends on.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"golang.org/x/time/rate"

	"github.com/supportdesk/backend/internal/domain"
)

// ClientConfig holds tunables for the backend client.
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	RequestsPerMinute int
	MaxRetries        int
}

// Client talks to the OpenAI backend. It implements both
// domain.ChatCompleter and domain.Moderator.
type Client struct {
	api         openai.Client
	model       string
	maxTokens   int
	maxRetries  int
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	// Retry policy lives here, not in the SDK.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		maxRetries:  maxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5),
	}
}

// SetDebug enables or disables request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Complete sends a chat request and returns the completion text.
// Transient failures are retried with exponential backoff; the error
// returned after exhausting retries wraps domain.ErrBackendFailure.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", domain.ErrInvalidRequest
	}

	params := openai.ChatCompletionNewParams{
		Messages:    toMessageParams(req.Messages),
		Model:       shared.ChatModel(c.model),
		Temperature: openai.Float(req.Temperature),
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	params.MaxTokens = openai.Int(int64(maxTokens))

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			if c.debug {
				log.Printf("[LLM] Completion error (attempt %d): %v", attempt, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
			if ctx.Err() != nil {
				return "", lastErr
			}
			sleep(ctx, exponentialBackoff(attempt))
			continue
		}

		if len(completion.Choices) == 0 {
			lastErr = fmt.Errorf("%w: empty completion", domain.ErrBackendFailure)
			sleep(ctx, exponentialBackoff(attempt))
			continue
		}

		content := completion.Choices[0].Message.Content
		if c.debug {
			log.Printf("[LLM] Completion OK (%d chars)", len(content))
		}
		return content, nil
	}

	return "", lastErr
}

// Moderate sends raw text to the moderation endpoint. Failures are not
// retried here; the guard treats any error as unavailable and fails closed.
func (c *Client) Moderate(ctx context.Context, input string) (*domain.ModerationResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.api.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(input),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: empty moderation response", domain.ErrBackendFailure)
	}

	result := resp.Results[0]
	if c.debug {
		log.Printf("[LLM] Moderation flagged=%v", result.Flagged)
	}

	return &domain.ModerationResult{
		Flagged:        result.Flagged,
		CategoryScores: scoreMap(result.CategoryScores),
	}, nil
}

// toMessageParams converts domain messages to SDK message unions. Unknown
// roles are sent as user messages.
func toMessageParams(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// scoreMap flattens the SDK's category-score struct into the generic
// mapping the domain carries. Scores are informational only; downstream
// stages act solely on the flagged bit.
func scoreMap(scores openai.ModerationCategoryScores) map[string]float64 {
	raw, err := json.Marshal(scores)
	if err != nil {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// exponentialBackoff returns the wait before the next retry attempt.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
