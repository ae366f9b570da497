package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/models"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 4 << 20

// Client is a lightweight OpenAI-compatible chat completion client.
// It works with any provider exposing /chat/completions (OpenAI, Gemini's
// OpenAI endpoint, DeepSeek, Groq, local servers).
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// NewClient creates a client from the LLM configuration section.
func NewClient(cfg config.LLMConfig) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewClientWithHTTP is NewClient with a caller-supplied http.Client.
// Pass nil to use a client with a 60s timeout.
func NewClientWithHTTP(cfg config.LLMConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient:  httpClient,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Ready reports whether the client has credentials to call the provider.
func (c *Client) Ready() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal OpenAI chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse captures an API error from the provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the text of
// the first choice. An empty choice is returned as "" without error; the
// caller decides what an empty answer means.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Ready() {
		return "", models.NewSearchError(models.ErrCodeCompletionAuthFailure, "no completion API key configured", nil)
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewSearchError(models.ErrCodeCompletion, "completion request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", models.NewSearchError(models.ErrCodeCompletion, "failed to read completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewSearchError(models.ErrCodeCompletion, "failed to parse completion response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewSearchError(models.ErrCodeCompletion, "provider returned no choices", nil)
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// classifyLLMError maps HTTP status codes to completion error codes.
func classifyLLMError(statusCode int, body []byte) *models.SearchError {
	var errResp chatErrorResponse
	msg := "completion API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewSearchError(models.ErrCodeCompletionAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewSearchError(models.ErrCodeCompletionRateLimited, msg, nil)
	default:
		return models.NewSearchError(models.ErrCodeCompletion, fmt.Sprintf("completion API returned %d: %s", statusCode, msg), nil)
	}
}
