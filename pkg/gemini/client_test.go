package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// newTestClient creates an sdkClient pointing at a local test server.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *sdkClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cli, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     "test-key",
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: srv.Client(),
		HTTPOptions: genai.HTTPOptions{
			BaseURL: srv.URL,
		},
	})
	require.NoError(t, err)

	c := &sdkClient{client: cli}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func generateContentResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     100,
			"candidatesTokenCount": 25,
		},
	}
}

func TestGenerateTextSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash-lite")
		assert.Contains(t, r.URL.Path, "generateContent")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateContentResponse("WEAKNESS 1:\nTITLE: Opaque pricing"))
	})

	resp, err := client.GenerateText(context.Background(), "gemini-2.5-flash-lite", "analyze this")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Opaque pricing")
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, int32(100), resp.Usage.PromptTokens)
	assert.Equal(t, int32(25), resp.Usage.OutputTokens)
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := client.GenerateText(context.Background(), "gemini-2.5-flash-lite", "analyze this")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTextBlankText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateContentResponse("   \n  "))
	})

	_, err := client.GenerateText(context.Background(), "gemini-2.5-flash-lite", "analyze this")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTextProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.GenerateText(context.Background(), "gemini-2.5-pro", "analyze this")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini-2.5-pro")
}

func TestRateLimiterPacesCalls(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateContentResponse("ok"))
	}, WithRequestsPerMinute(600)) // 10/s: second call waits ~100ms

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := client.GenerateText(context.Background(), "gemini-2.5-flash-lite", "p")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimiterRespectsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateContentResponse("ok"))
	}, WithRequestsPerMinute(1)) // one call per minute

	_, err := client.GenerateText(context.Background(), "gemini-2.5-flash-lite", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.GenerateText(ctx, "gemini-2.5-flash-lite", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}
