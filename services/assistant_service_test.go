package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantService_GenerateResponse(t *testing.T) {
	var gotBody generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "Hello from the assistant"}}}},
			},
		})
	}))
	defer server.Close()

	service := NewAssistantService(server.URL, "test-key", "test-model")
	reply, err := service.GenerateResponse(context.Background(), []models.ChatMessage{
		{Role: "user", Content: "How do I buy a ticket?"},
		{Role: "assistant", Content: "Pick an event first."},
		{Role: "user", Content: "Done."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from the assistant", reply)

	// The assistant role is translated for the upstream API.
	require.Len(t, gotBody.Contents, 3)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "model", gotBody.Contents[1].Role)
	assert.Equal(t, "How do I buy a ticket?", gotBody.Contents[0].Parts[0].Text)
}

func TestAssistantService_GenerateResponse_EmptyConversation(t *testing.T) {
	service := NewAssistantService("http://unused.test", "key", "model")

	_, err := service.GenerateResponse(context.Background(), nil)
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}

func TestAssistantService_GenerateResponse_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := NewAssistantService(server.URL, "key", "model")
	_, err := service.GenerateResponse(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}

func TestAssistantService_GenerateResponse_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	service := NewAssistantService(server.URL, "key", "model")
	_, err := service.GenerateResponse(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}
