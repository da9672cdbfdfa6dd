// Package genai implements the AI-response pipeline around the Google
// generative-AI SDK: prompt construction per hint stage, the model call,
// and deterministic post-processing (length trimming, resource parsing).
//
// The package separates the transport (Client, a thin Gemini wrapper) from
// the pipeline logic (Pipeline) so that services and tests can substitute a
// fake TextGenerator without touching the SDK.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gen "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used for hint and resource generation
// when none is configured.
const DefaultModel = "gemini-1.5-pro"

// Turn is one prior exchange supplied as conversation history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// GenConfig tunes a single generation request.
type GenConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

// Request is a single model invocation: a prompt, optional prior history,
// and generation parameters.
type Request struct {
	Prompt  string
	History []Turn
	Config  GenConfig
}

// TextGenerator produces raw model output for a request. Implemented by
// Client; tests and the service layer may substitute fakes.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Disabled is a TextGenerator for deployments without an API key: every
// call fails, so hint endpoints report the model unavailable and resource
// generation falls back to the curated sets.
var Disabled TextGenerator = disabledGenerator{}

type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, Request) (string, error) {
	return "", errors.New("genai: no API key configured")
}

// Client wraps the Gemini SDK client. It is safe for concurrent use.
type Client struct {
	client *gen.Client
	model  string
}

// NewClient dials the Gemini API with the given key. model may be empty, in
// which case DefaultModel is used.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("genai: API key is empty")
	}
	c, err := gen.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: c, model: model}, nil
}

// Close releases the underlying SDK connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate sends req to the model, replaying req.History as chat turns, and
// returns the concatenated text parts of the first candidate.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	model := c.client.GenerativeModel(c.model)

	cfg := req.Config
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		model.GenerationConfig.Temperature = &t
	}
	if cfg.TopP > 0 {
		p := cfg.TopP
		model.GenerationConfig.TopP = &p
	}
	if cfg.TopK > 0 {
		k := cfg.TopK
		model.GenerationConfig.TopK = &k
	}
	if cfg.MaxOutputTokens > 0 {
		m := cfg.MaxOutputTokens
		model.GenerationConfig.MaxOutputTokens = &m
	}

	session := model.StartChat()
	session.History = mapHistory(req.History)

	resp, err := session.SendMessage(ctx, gen.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("genai: send message: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("genai: empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(gen.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("genai: response contained no text parts")
	}
	return b.String(), nil
}

// mapHistory converts stored chat messages to SDK turns. The assistant role
// maps to the SDK's "model" role; everything else is a user turn.
func mapHistory(turns []Turn) []*gen.Content {
	out := make([]*gen.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == "assistant" {
			role = "model"
		}
		out = append(out, &gen.Content{
			Role:  role,
			Parts: []gen.Part{gen.Text(t.Content)},
		})
	}
	return out
}
