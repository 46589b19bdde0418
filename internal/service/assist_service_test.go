package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"threadboard/internal/models"
	"threadboard/internal/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOracle(text string, err error) oracle.Oracle {
	return oracle.Func(func(context.Context, string) (string, error) { return text, err })
}

func TestAssistService_NotConfigured(t *testing.T) {
	svc := NewAssistService(nil)
	assert.False(t, svc.Configured())

	_, err := svc.Chat(context.Background(), "hi")
	assertAppError(t, err, models.CodeServiceUnavailable)
	_, err = svc.Suggest(context.Background(), "t", "c")
	assertAppError(t, err, models.CodeServiceUnavailable)
}

func TestAssistService_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("empty message", func(t *testing.T) {
		_, err := NewAssistService(fixedOracle("x", nil)).Chat(ctx, "  ")
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("passthrough", func(t *testing.T) {
		var prompt string
		svc := NewAssistService(oracle.Func(func(_ context.Context, p string) (string, error) {
			prompt = p
			return "Hello there", nil
		}))
		now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		reply, err := svc.Chat(ctx, "What is Go?")
		require.NoError(t, err)
		assert.Equal(t, "What is Go?", prompt)
		assert.Equal(t, &ChatReply{Message: "Hello there", Timestamp: now}, reply)
	})

	t.Run("empty answer passes through", func(t *testing.T) {
		reply, err := NewAssistService(fixedOracle("", nil)).Chat(ctx, "hi")
		require.NoError(t, err)
		assert.Empty(t, reply.Message)
	})

	t.Run("upstream failure", func(t *testing.T) {
		_, err := NewAssistService(fixedOracle("", errors.New("quota exceeded"))).Chat(ctx, "hi")
		assertAppError(t, err, models.CodeUpstream)
		assert.Equal(t, "AI service error: quota exceeded", err.Error())
	})
}

func TestAssistService_Suggest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		response string
		want     *Suggestion
	}{
		{
			name:     "plain json",
			response: `{"tags":["go","db","orm"],"category":"Technical Support","summary":"ORM help"}`,
			want:     &Suggestion{Tags: []string{"go", "db", "orm"}, Category: models.CategorySupport, Summary: "ORM help"},
		},
		{
			name:     "fenced json",
			response: "```json\n{\"tags\":[\"a\",\"b\",\"c\"],\"category\":\"Announcements\",\"summary\":\"News\"}\n```",
			want:     &Suggestion{Tags: []string{"a", "b", "c"}, Category: models.CategoryAnnounce, Summary: "News"},
		},
		{
			name:     "prose around json",
			response: "Sure! Here you go:\n{\"tags\":[\"x\"],\"category\":\"Feature Requests\",\"summary\":\"Idea\"}\nHope that helps.",
			want:     &Suggestion{Tags: []string{"x"}, Category: models.CategoryFeature, Summary: "Idea"},
		},
		{
			name:     "unknown category coerced",
			response: `{"tags":["x"],"category":"Random","summary":"s"}`,
			want:     &Suggestion{Tags: []string{"x"}, Category: models.CategoryGeneral, Summary: "s"},
		},
		{
			name:     "not json",
			response: "I think this post is about databases.",
			want:     FallbackSuggestion(),
		},
		{
			name:     "broken json",
			response: `{"tags": ["a", "b"`,
			want:     FallbackSuggestion(),
		},
		{
			name:     "empty answer",
			response: "",
			want:     FallbackSuggestion(),
		},
		{
			name:     "wrong shape",
			response: `{"tags": "not-a-list"}`,
			want:     FallbackSuggestion(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAssistService(fixedOracle(tt.response, nil)).Suggest(ctx, "Title", "Content")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssistService_SuggestFallbackIsExact(t *testing.T) {
	got, err := NewAssistService(fixedOracle("nope", nil)).Suggest(context.Background(), "t", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"discussion", "help", "question"}, got.Tags)
	assert.Equal(t, "General Discussion", got.Category)
	assert.Equal(t, "A forum discussion post", got.Summary)
}

func TestAssistService_SuggestPromptAndErrors(t *testing.T) {
	ctx := context.Background()

	var prompt string
	svc := NewAssistService(oracle.Func(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "{}", nil
	}))
	_, err := svc.Suggest(ctx, "My Title", "My Content")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "Analyze this forum post and provide suggestions in JSON format:"))
	assert.Contains(t, prompt, "Title: My Title\nContent: My Content")
	assert.True(t, strings.HasSuffix(prompt, "Categories: General Discussion, Technical Support, Feature Requests, Announcements"))

	_, err = svc.Suggest(ctx, "", "c")
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.Suggest(ctx, "t", " ")
	assertAppError(t, err, models.CodeValidation)

	_, err = NewAssistService(fixedOracle("", errors.New("timeout"))).Suggest(ctx, "t", "c")
	assertAppError(t, err, models.CodeUpstream)
}
