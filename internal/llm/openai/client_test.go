package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/llm"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(Config{
		APIKey:           "test-key",
		BaseURL:          url,
		Model:            "gpt-4o-mini",
		Timeout:          timeout,
		MaxRetries:       1,
		RetryDelay:       time.Millisecond,
		StructuredOutput: true,
	}, zap.NewNop())
}

func TestCompleteSendsStructuredOutputRequest(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody(`{"vehicle":{"brand":"Fiat"}}`))
	}))
	defer server.Close()

	out, err := newTestClient(server.URL, time.Second).Complete(context.Background(), llm.CompletionRequest{
		System: "system",
		User:   "user",
		Schema: llm.BuildOfferJSONSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"vehicle":{"brand":"Fiat"}}`, out)

	assert.Equal(t, "gpt-4o-mini", payload["model"])
	rf, ok := payload["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, llm.SchemaName, js["name"])
	assert.Equal(t, false, js["strict"])
	msgs := payload["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestCompleteRetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody("{}"))
	}))
	defer server.Close()

	out, err := newTestClient(server.URL, time.Second).Complete(context.Background(), llm.CompletionRequest{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad request"}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, time.Second).Complete(context.Background(), llm.CompletionRequest{System: "s", User: "u"})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeCompletion))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteTimesOutEachAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := newTestClient(server.URL, 50*time.Millisecond).Complete(context.Background(), llm.CompletionRequest{System: "s", User: "u"})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeCompletion))
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), 2*time.Second)
}
