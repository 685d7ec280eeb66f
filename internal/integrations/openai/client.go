package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"api-probe/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %v", e.StatusCode, e.URL, e.Err)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused OpenAI-compatible client for chat completions.
type Client struct {
	api     *goopenai.Client
	baseURL string
}

type Option func(*goopenai.ClientConfig)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *goopenai.ClientConfig) {
		if httpClient != nil {
			c.HTTPClient = httpClient
		}
	}
}

// NewClient builds a client for the service at baseURL. A base URL without a
// path gets the conventional /v1 suffix.
func NewClient(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key must not be empty")
	}
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = base
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), baseURL: base}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func normalizeBaseURL(baseURL string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return defaultBaseURL, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("openai: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("openai: base url %q must be absolute", baseURL)
	}
	if u.Path == "" {
		return base + "/v1", nil
	}
	return base, nil
}

// Complete submits one chat completion and returns the first choice.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.Completion, error) {
	if model == "" {
		return domain.Completion{}, errors.New("openai: model must not be empty")
	}

	req := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		if status, ok := upstreamStatus(err); ok {
			return domain.Completion{}, &HTTPStatusError{
				StatusCode: status,
				URL:        c.baseURL + "/chat/completions",
				Err:        err,
			}
		}
		return domain.Completion{}, fmt.Errorf("openai: create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, errors.New("openai: no choices in response")
	}

	msg := resp.Choices[0].Message
	return domain.Completion{
		Content:    msg.Content,
		HasContent: msg.Content != "",
	}, nil
}

func upstreamStatus(err error) (int, bool) {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
