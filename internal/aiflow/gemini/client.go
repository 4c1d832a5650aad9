// Package gemini is the Generator adapter for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docverify/internal/aiflow"
)

const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Logger     *slog.Logger
}

type Client struct {
	baseURL string
	model   string
	apiKey  string
	client  HTTPDoer
	logger  *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  client,
		logger:  logger,
	}
}

// Model names the model every request is sent to; it is part of cache keys.
func (c *Client) Model() string {
	return c.model
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends the prompt and images as one user turn and returns the text
// of the first candidate, which the model is instructed to emit as JSON.
func (c *Client) Generate(ctx context.Context, req aiflow.Request) ([]byte, error) {
	parts := []part{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, part{InlineData: &inlineData{MIMEType: img.MIMEType, Data: img.Base64()}})
	}
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, aiflow.NewError(aiflow.CategoryInternal, req.Flow, "failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, aiflow.NewError(aiflow.CategoryInternal, req.Flow, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, aiflow.NewError(aiflow.CategoryTimeout, req.Flow, "request timeout", err)
		}
		return nil, aiflow.NewError(aiflow.CategoryProviderOutage, req.Flow, "failed to execute request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, aiflow.NewError(aiflow.CategoryBadData, req.Flow, "failed to read response", err)
	}
	c.logger.DebugContext(ctx, "genai response",
		"flow", req.Flow,
		"model", c.model,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if cat, ok := statusCategory(resp.StatusCode); ok {
		return nil, aiflow.NewError(cat, req.Flow, fmt.Sprintf("provider returned status %d", resp.StatusCode), nil)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, aiflow.NewError(aiflow.CategoryContractMismatch, req.Flow, "unexpected response envelope", err)
	}
	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return nil, aiflow.NewError(aiflow.CategoryBadData, req.Flow, "prompt blocked: "+decoded.PromptFeedback.BlockReason, nil)
	}
	if len(decoded.Candidates) == 0 {
		return nil, aiflow.NewError(aiflow.CategoryBadData, req.Flow, "response has no candidates", nil)
	}
	var text strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, aiflow.NewError(aiflow.CategoryBadData, req.Flow, "response is empty", nil)
	}
	return []byte(text.String()), nil
}

func statusCategory(status int) (aiflow.Category, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return aiflow.CategoryAuthentication, true
	case status == http.StatusTooManyRequests:
		return aiflow.CategoryRateLimited, true
	case status == http.StatusBadRequest, status == http.StatusNotFound:
		return aiflow.CategoryContractMismatch, true
	case status == http.StatusGatewayTimeout:
		return aiflow.CategoryTimeout, true
	case status >= 500:
		return aiflow.CategoryProviderOutage, true
	default:
		return aiflow.CategoryInternal, true
	}
}

var _ aiflow.Generator = (*Client)(nil)
