package domain

import (
	"context"
	"time"
)

// ChatMessage is one role-tagged message in a backend request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is a single request to the text-generation backend.
// MaxTokens of zero means the client default; Temperature defaults to 0
// so pipeline runs stay as deterministic as the backend allows.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// ChatCompleter defines the interface every pipeline stage uses to talk to
// the text-generation backend.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ModerationResult is the moderation backend's judgement of one input.
type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
}

// Moderator defines the interface for the content-moderation backend.
type Moderator interface {
	Moderate(ctx context.Context, input string) (*ModerationResult, error)
}

// CatalogRepository defines read access to the immutable product catalog.
// Implementations must be safe for concurrent readers.
type CatalogRepository interface {
	ByName(name string) (*Product, error)
	ByCategory(category Category) []Product
	// ProductsByCategory returns the category -> ordered product names
	// mapping used to build resolver prompts.
	ProductsByCategory() map[Category][]string
	All() []Product
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
