// Package gemini implements generation.Generator on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rbright/rehearse/internal/generation"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Config configures the Gemini backend.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client is a generation.Generator backed by the Gemini API.
type Client struct {
	models *genai.Models
	model  string
	logger *slog.Logger
}

// New dials nothing; it prepares a Gemini API client for later calls.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &generation.Error{Kind: generation.ErrAuth, Message: "api key is empty"}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	httpOptions := genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		httpOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{models: client.Models, model: model, logger: logger}, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "gemini" }

// Generate sends one request and returns the candidate text.
func (c *Client) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	started := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents(req.Turns), generateConfig(req))
	if err != nil {
		return generation.Response{}, classify(err)
	}
	if err := blocked(resp); err != nil {
		return generation.Response{}, err
	}

	text := resp.Text()
	c.logger.Debug("gemini generate complete",
		"model", c.model,
		"turns", len(req.Turns),
		"structured", req.Schema != nil,
		"text_length", len(text),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return generation.Response{Text: text, Model: c.model}, nil
}

func generateConfig(req generation.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = textContent("user", req.System)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(req.Schema)
	}
	return cfg
}

func contents(turns []generation.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == generation.RoleModel {
			role = "model"
		}
		out = append(out, textContent(role, turn.Text))
	}
	return out
}

func textContent(role string, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

func toSchema(s *generation.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             schemaType(s.Type),
		Description:      s.Description,
		Required:         append([]string(nil), s.Required...),
		PropertyOrdering: append([]string(nil), s.Order...),
		MinItems:         s.MinItems,
		MaxItems:         s.MaxItems,
		Minimum:          s.Minimum,
		Maximum:          s.Maximum,
		Items:            toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func schemaType(t generation.Type) genai.Type {
	switch t {
	case generation.TypeObject:
		return genai.TypeObject
	case generation.TypeArray:
		return genai.TypeArray
	case generation.TypeNumber:
		return genai.TypeNumber
	case generation.TypeInteger:
		return genai.TypeInteger
	case generation.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// blocked reports safety refusals that arrive as a successful response.
func blocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		msg := strings.TrimSpace(fb.BlockReasonMessage)
		if msg == "" {
			msg = "prompt blocked: " + string(fb.BlockReason)
		}
		return &generation.Error{Kind: generation.ErrSafetyBlocked, Message: msg}
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return &generation.Error{Kind: generation.ErrSafetyBlocked, Message: "candidate finished with " + string(reason)}
	}
	return nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return withCause(generation.FromStatus(apiErr.Code, apiErr.Message), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return withCause(generation.FromStatus(apiErrPtr.Code, apiErrPtr.Message), err)
	}
	return generation.Classify(err)
}

func withCause(classified error, cause error) error {
	var genErr *generation.Error
	if errors.As(classified, &genErr) {
		genErr.Err = cause
	}
	return classified
}
