// Package openai drafts subscriber replies and location reports through an
// OpenAI-compatible chat completions endpoint (OpenAI or Azure OpenAI).
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

	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

const (
	maxTokens   = 800
	temperature = 0.4
)

// Client implements domain.ReplyGenerator and domain.ReportGenerator.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a reply drafter. endpoint is the API base URL, for
// example https://api.openai.com/v1 or an Azure deployment URL.
func NewClient(endpoint, apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Draft asks the model for a reply email body. An empty completion is
// returned as "" with a nil error; callers decide whether that is usable.
func (c *Client) Draft(ctx context.Context, prompt domain.ReplyPrompt) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt(prompt))
}

// Report asks for a news summary and a list of nearby relief centres for
// location. Both parts are required.
func (c *Client) Report(ctx context.Context, location string, lang domain.Language) (domain.LocationReport, error) {
	news, err := c.complete(ctx, reportSystemPrompt, newsPrompt(location, lang))
	if err != nil {
		return domain.LocationReport{}, fmt.Errorf("news summary for %q: %w", location, err)
	}
	if news == "" {
		return domain.LocationReport{}, fmt.Errorf("news summary for %q: %w: empty completion", location, domain.ErrProviderUnavailable)
	}

	relief, err := c.complete(ctx, reportSystemPrompt, reliefPrompt(location, lang))
	if err != nil {
		return domain.LocationReport{}, fmt.Errorf("relief centres for %q: %w", location, err)
	}
	if relief == "" {
		return domain.LocationReport{}, fmt.Errorf("relief centres for %q: %w: empty completion", location, domain.ErrProviderUnavailable)
	}

	return domain.LocationReport{
		Location:      location,
		Language:      lang,
		NewsSummary:   news,
		ReliefCenters: relief,
	}, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read chat completion: %w", domain.ErrProviderUnavailable, err)
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
			return "", fmt.Errorf("%w: chat completion status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("%w: chat completion status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode chat completion: %w", domain.ErrProviderUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		c.logger.Warn("chat completion returned no choices", "model", c.model)
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
