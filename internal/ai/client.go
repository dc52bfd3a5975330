// Package ai talks to OpenAI-compatible chat completion APIs to generate
// candidate patches.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/types"
)

// Client wraps a chat completions endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client

	// MaxAttempts bounds retries of failed requests.
	MaxAttempts int
	// Backoff is the delay before the first retry; it doubles every attempt.
	Backoff time.Duration
}

// NewClient creates a new AI client.
func NewClient(apiKey, baseURL, model string, temperature float64, maxTokens int) *Client {
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		MaxAttempts: 5,
		Backoff:     2 * time.Second,
	}
}

func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user message and returns the first
// choice together with the reported token usage.
func (c *Client) Complete(ctx context.Context, prompt string) (types.Generation, error) {
	attempts := max(c.MaxAttempts, 1)
	delay := c.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		gen, err := c.complete(ctx, prompt)
		if err == nil {
			return gen, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		log.Warn().Err(err).Int("attempt", attempt).Str("model", c.model).Msg("completion failed, retrying")
		select {
		case <-ctx.Done():
			return types.Generation{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return types.Generation{}, fmt.Errorf("completion failed after %d attempt(s): %w", attempts, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (types.Generation, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		payload["max_tokens"] = c.maxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return types.Generation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return types.Generation{}, err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Generation{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return types.Generation{}, fmt.Errorf("ai request failed: %s - %s", resp.Status, buf.String())
	}

	var parsed completionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return types.Generation{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return types.Generation{}, fmt.Errorf("ai request failed: %s", parsed.Error.Message)
	}

	content := parsed.FirstContent()
	if content == "" {
		return types.Generation{}, fmt.Errorf("empty AI response")
	}

	return types.Generation{Content: content, Usage: parsed.Usage}, nil
}

type completionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *types.Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c completionsResponse) FirstContent() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}
