// Package openrouter implements the AI client port against an
// OpenRouter-compatible chat completions API.
package openrouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// Client implements domain.AIClient using an OpenRouter-compatible endpoint.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Client with the configured request timeout.
func New(cfg config.Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: cfg.AIRequestTimeout}}
}

func (c *Client) newBackoff() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxIvl, mult := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxIvl
	expo.Multiplier = mult
	return expo
}

// ChatJSON calls the chat completions endpoint and returns the assistant
// message content. Transient failures (network errors, 429, 5xx) are retried
// with exponential backoff; 4xx responses other than 429 are permanent.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}

	body := map[string]any{
		"model":       c.cfg.OpenRouterModel,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("op=ai.chat_json marshal: %w", err)
	}

	var content string
	op := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(req)
		observability.AIRequestsTotal.WithLabelValues("openrouter", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openrouter", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("ai request failed", slog.String("provider", "openrouter"), slog.Any("error", err))
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			slog.Warn("ai provider rate limited", slog.String("provider", "openrouter"))
			return fmt.Errorf("rate limited: 429")
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error: %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("%w: status %d: %s", domain.ErrSchemaInvalid, resp.StatusCode, snippet(respBody, 256)))
		}

		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(respBody, &out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if len(out.Choices) == 0 {
			return fmt.Errorf("empty choices")
		}
		content = out.Choices[0].Message.Content
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx)); err != nil {
		if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("op=ai.chat_json: %w", err)
	}
	return content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
