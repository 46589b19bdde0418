// Package oracle wraps the generative-language API used for chat and
// thread suggestions.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"threadboard/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// Oracle produces text for a prompt.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Gemini is an Oracle backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a client for apiKey. It is created once at startup and shared.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	return newGemini(ctx, apiKey, model, genai.HTTPOptions{})
}

func newGemini(ctx context.Context, apiKey, model string, httpOpts genai.HTTPOptions) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Generate sends prompt as a single user turn and returns the text of the first candidate.
// A completion without text (blocked or truncated) yields "" and no error; callers
// treat it like any other unusable answer.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	span, ctx := observability.NewSpan(ctx, "oracle.generate",
		attribute.String("oracle.provider", "gemini"),
		attribute.String("oracle.model", g.model),
		attribute.Int("oracle.prompt_chars", len(prompt)),
	)
	defer span.End()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		span.SetError(err)
		return "", err
	}
	text := resp.Text()
	span.SetAttributes(attribute.Int("oracle.response_chars", len(text)))
	return text, nil
}
