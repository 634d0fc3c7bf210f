// Package openai implements generation.Generator on an OpenAI-compatible
// Chat Completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/generation"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gpt-4o-mini"
)

// Config configures the OpenAI-compatible backend.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client is a generation.Generator over Chat Completions.
type Client struct {
	apiKey  string
	model   string
	chatURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a Chat Completions client from config.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &generation.Error{Kind: generation.ErrAuth, Message: "api key is empty"}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		chatURL: base + "/chat/completions",
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "openai" }

// Generate sends the request to the Chat Completions API.
func (c *Client) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	started := time.Now()

	bodyBytes, err := json.Marshal(c.chatRequest(req))
	if err != nil {
		return generation.Response{}, fmt.Errorf("marshalling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return generation.Response{}, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return generation.Response{}, generation.Classify(fmt.Errorf("chat request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return generation.Response{}, generation.FromStatus(resp.StatusCode, errorMessage(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return generation.Response{}, &generation.Error{Kind: generation.ErrService, Message: "decoding chat response", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return generation.Response{}, &generation.Error{Kind: generation.ErrService, Message: "no choices returned from chat API"}
	}

	choice := chatResp.Choices[0]
	if choice.FinishReason == "content_filter" || strings.TrimSpace(choice.Message.Refusal) != "" {
		return generation.Response{}, &generation.Error{Kind: generation.ErrSafetyBlocked, Message: "response blocked by content policy"}
	}

	model := chatResp.Model
	if model == "" {
		model = c.model
	}
	c.logger.Debug("chat completion complete",
		"model", model,
		"turns", len(req.Turns),
		"structured", req.Schema != nil,
		"text_length", len(choice.Message.Content),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return generation.Response{Text: choice.Message.Content, Model: model}, nil
}

func (c *Client) chatRequest(req generation.Request) chatRequest {
	messages := make([]chatMessage, 0, len(req.Turns)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, turn := range req.Turns {
		role := "user"
		if turn.Role == generation.RoleModel {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Text})
	}

	out := chatRequest{Model: c.model, Messages: messages, Temperature: 0.7}
	if req.Schema != nil {
		out.Temperature = 0.2
		out.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "response",
				Schema: jsonSchema(wrapTopLevel(req.Schema)),
			},
		}
	}
	return out
}

// wrapTopLevel puts arrays under an "items" key; structured output only
// accepts an object at the root. The interpreter unwraps single-key objects.
func wrapTopLevel(s *generation.Schema) *generation.Schema {
	if s.Type == generation.TypeObject {
		return s
	}
	return generation.Object("", generation.Field("items", s))
}

func jsonSchema(s *generation.Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = jsonSchema(prop)
		}
		out["properties"] = props
		out["additionalProperties"] = false
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = jsonSchema(s.Items)
	}
	if s.MinItems != nil {
		out["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	return out
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
