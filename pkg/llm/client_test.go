package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deepchat-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsTranscriptAndParsesReply(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there","reasoning_content":"greet back"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{
		BaseURL:    srv.URL + "/",
		Generation: config.LLMGenerationConfig{Temperature: 0.7, MaxTokens: 2000},
	})

	reply, err := client.Complete(context.Background(), "deepseek-reasoner", []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hey"},
		{Role: "user", Content: "again"},
	}, "sk-test")
	require.NoError(t, err)

	assert.Equal(t, "Hi there", reply.Content)
	assert.Equal(t, "greet back", reply.ReasoningContent)

	assert.Equal(t, "deepseek-reasoner", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "again", got.Messages[2].Content)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-9)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 2000, *got.MaxTokens)
	assert.Nil(t, got.TopP)
}

func TestCompleteNon200ReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Authentication Fails"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(config.LLMConfig{BaseURL: srv.URL}).Complete(context.Background(), "m", nil, "bad")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Authentication Fails")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(config.LLMConfig{BaseURL: srv.URL}).Complete(context.Background(), "m", nil, "k")
	assert.ErrorContains(t, err, "no choices")
}

func TestCompleteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(config.LLMConfig{BaseURL: srv.URL}).Complete(context.Background(), "m", nil, "k")
	assert.ErrorContains(t, err, "unmarshal")
}

func TestCompleteHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(config.LLMConfig{BaseURL: srv.URL}).Complete(ctx, "m", nil, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
