package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/backend/internal/domain"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		APIKey:            "test-api-key",
		BaseURL:           baseURL,
		Model:             "gpt-3.5-turbo",
		MaxTokens:         500,
		RequestsPerMinute: 6000,
		MaxRetries:        3,
	})
}

func completionResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-3.5-turbo",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

func moderationResponse(flagged bool, scores map[string]float64) map[string]interface{} {
	return map[string]interface{}{
		"id":    "modr-test",
		"model": "text-moderation-latest",
		"results": []map[string]interface{}{
			{
				"flagged":         flagged,
				"categories":      map[string]bool{},
				"category_scores": scores,
			},
		},
	}
}

func TestNewClient(t *testing.T) {
	client := testClient("https://api.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "gpt-3.5-turbo", client.model)
	assert.Equal(t, 500, client.maxTokens)
	assert.Equal(t, 3, client.maxRetries)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "k", Model: "gpt-3.5-turbo"})

	assert.Equal(t, 2000, client.maxTokens)
	assert.Equal(t, 3, client.maxRetries)
}

func TestSetDebug(t *testing.T) {
	client := testClient("https://api.example.com")

	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "test-api-key")

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo", body["model"])

		messages, ok := body["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, messages, 2)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("The SmartX ProPhone costs $899.99."))
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx := context.Background()

	result, err := client.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: "You are a support agent."},
			{Role: "user", Content: "how much is the smartx pro phone?"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "The SmartX ProPhone costs $899.99.", result)
}

func TestComplete_SendsMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1), body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("Y"))
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Complete(context.Background(), domain.ChatRequest{
		Messages:  []domain.ChatMessage{{Role: "user", Content: "Y or N?"}},
		MaxTokens: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "Y", result)
}

func TestComplete_EmptyMessages(t *testing.T) {
	client := testClient("https://api.example.com")

	_, err := client.Complete(context.Background(), domain.ChatRequest{})

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestComplete_ServerError_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("Recovered."))
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Complete(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: "user", Content: "hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Recovered.", result)
	assert.Equal(t, 3, attempts)
}

func TestComplete_AllRetriesFail(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.Complete(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: "user", Content: "hello"}},
	})

	assert.ErrorIs(t, err, domain.ErrBackendFailure)
	assert.Equal(t, 3, attempts)
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-3.5-turbo",
			"choices": []interface{}{},
		})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:            "test-api-key",
		BaseURL:           server.URL,
		Model:             "gpt-3.5-turbo",
		RequestsPerMinute: 6000,
		MaxRetries:        1,
	})

	_, err := client.Complete(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: "user", Content: "hello"}},
	})

	assert.ErrorIs(t, err, domain.ErrBackendFailure)
	assert.Contains(t, err.Error(), "empty completion")
}

func TestComplete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: "user", Content: "hello"}},
	})

	assert.Error(t, err)
}

func TestModerate_Flagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderations", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(moderationResponse(true, map[string]float64{
			"violence":   0.98,
			"harassment": 0.12,
		}))
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Moderate(context.Background(), "some hostile text")

	require.NoError(t, err)
	assert.True(t, result.Flagged)
	assert.InDelta(t, 0.98, result.CategoryScores["violence"], 0.0001)
}

func TestModerate_Clean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(moderationResponse(false, map[string]float64{}))
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Moderate(context.Background(), "tell me about the smartx pro phone")

	require.NoError(t, err)
	assert.False(t, result.Flagged)
}

func TestModerate_ServerError_NoRetry(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Moderate(context.Background(), "anything")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrBackendFailure)
	assert.Equal(t, 1, attempts) // Moderation is never retried; the guard fails closed
}

func TestModerate_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "modr-test",
			"model":   "text-moderation-latest",
			"results": []interface{}{},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Moderate(context.Background(), "anything")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrBackendFailure)
}

func TestToMessageParams(t *testing.T) {
	params := toMessageParams([]domain.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "usr"},
		{Role: "assistant", Content: "asst"},
		{Role: "tool", Content: "unknown role"},
	})

	require.Len(t, params, 4)
	assert.NotNil(t, params[0].OfSystem)
	assert.NotNil(t, params[1].OfUser)
	assert.NotNil(t, params[2].OfAssistant)
	assert.NotNil(t, params[3].OfUser) // unknown roles travel as user messages
}
