package oracle

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestFunc_Generate(t *testing.T) {
	var got string
	o := Func(func(_ context.Context, prompt string) (string, error) {
		got = prompt
		return "pong", nil
	})

	out, err := o.Generate(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	assert.Equal(t, "ping", got)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "  ", "gemini-2.5-flash")
	assert.Error(t, err)
}

func TestNewGemini_KeepsModel(t *testing.T) {
	g, err := NewGemini(context.Background(), "test-key", "gemini-test")
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", g.Model())
}

func geminiServer(t *testing.T, status int, body string) (*Gemini, *string) {
	t.Helper()
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	g, err := newGemini(context.Background(), "test-key", "gemini-test", genai.HTTPOptions{
		BaseURL:    srv.URL,
		APIVersion: "v1beta",
	})
	require.NoError(t, err)
	return g, &path
}

func TestGemini_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		g, path := geminiServer(t, http.StatusOK,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"Use a mutex."}]},"finishReason":"STOP"}]}`)
		out, err := g.Generate(ctx, "How do I guard a map?")
		require.NoError(t, err)
		assert.Equal(t, "Use a mutex.", out)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", *path)
	})

	t.Run("empty completion", func(t *testing.T) {
		g, _ := geminiServer(t, http.StatusOK,
			`{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`)
		out, err := g.Generate(ctx, "anything")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("http error", func(t *testing.T) {
		g, _ := geminiServer(t, http.StatusTooManyRequests,
			`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
		_, err := g.Generate(ctx, "anything")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}
