package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/observability"
	"threadboard/internal/oracle"
)

// Suggestion is the oracle's proposal for a draft thread.
type Suggestion struct {
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
	Summary  string   `json:"summary"`
}

// ChatReply is the oracle's raw answer to a chat message.
type ChatReply struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// FallbackSuggestion is returned whenever the oracle's answer cannot be parsed.
func FallbackSuggestion() *Suggestion {
	return &Suggestion{
		Tags:     []string{"discussion", "help", "question"},
		Category: models.CategoryGeneral,
		Summary:  "A forum discussion post",
	}
}

const suggestionPrompt = `Analyze this forum post and provide suggestions in JSON format:

Title: %s
Content: %s

Respond with ONLY valid JSON (no markdown, no extra text):
{
  "tags": ["tag1", "tag2", "tag3"],
  "category": "General Discussion",
  "summary": "Brief summary"
}

Categories: General Discussion, Technical Support, Feature Requests, Announcements`

// AssistService fronts the suggestion oracle. A nil oracle means the feature is
// not configured and every call fails with SERVICE_UNAVAILABLE.
type AssistService struct {
	oracle oracle.Oracle
	now    func() time.Time
}

func NewAssistService(o oracle.Oracle) *AssistService {
	return &AssistService{oracle: o, now: time.Now}
}

// Configured reports whether an oracle was supplied at startup.
func (s *AssistService) Configured() bool {
	return s.oracle != nil
}

func (s *AssistService) Chat(ctx context.Context, message string) (*ChatReply, error) {
	if s.oracle == nil {
		return nil, models.NewServiceUnavailableError("AI service not configured")
	}
	if strings.TrimSpace(message) == "" {
		return nil, models.NewValidationError("Please provide a message")
	}

	start := time.Now()
	text, err := s.oracle.Generate(ctx, message)
	if err != nil {
		observability.ObserveOracle("chat", "error", start)
		middleware.Logger.ErrorContext(ctx, "oracle chat failed", slog.String("error", err.Error()))
		return nil, models.NewUpstreamError("AI service", err)
	}
	observability.ObserveOracle("chat", "ok", start)

	return &ChatReply{Message: text, Timestamp: s.now()}, nil
}

func (s *AssistService) Suggest(ctx context.Context, title, content string) (*Suggestion, error) {
	if s.oracle == nil {
		return nil, models.NewServiceUnavailableError("AI service not configured")
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Please provide title and content")
	}

	start := time.Now()
	text, err := s.oracle.Generate(ctx, fmt.Sprintf(suggestionPrompt, title, content))
	if err != nil {
		observability.ObserveOracle("suggest", "error", start)
		middleware.Logger.ErrorContext(ctx, "oracle suggestion failed", slog.String("error", err.Error()))
		return nil, models.NewUpstreamError("AI service", err)
	}

	suggestion, ok := parseSuggestion(text)
	if !ok {
		observability.ObserveOracle("suggest", "fallback", start)
		observability.SuggestionFallbacks.Inc()
		middleware.Logger.WarnContext(ctx, "oracle returned unparseable suggestion, using fallback",
			slog.Int("response_chars", len(text)))
		return FallbackSuggestion(), nil
	}
	observability.ObserveOracle("suggest", "ok", start)
	return suggestion, nil
}

// parseSuggestion extracts the outermost JSON object from text, which drops
// markdown fences and any prose the model wrapped around it.
func parseSuggestion(text string) (*Suggestion, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var out Suggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, false
	}

	out.Tags = models.NormalizeTags(out.Tags)
	out.Category = strings.TrimSpace(out.Category)
	if !models.IsValidCategory(out.Category) {
		out.Category = models.DefaultCategory
	}
	out.Summary = strings.TrimSpace(out.Summary)
	return &out, true
}
