package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"DailyByte/internal/config"
	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
)

const statusOverloaded = 529

// AnthropicClient implements ports.ModelClient with the Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

var _ ports.ModelClient = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client; SDK-level retries are disabled because the curator owns the retry policy.
func NewAnthropicClient(cfg config.AnthropicConfig) *AnthropicClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{client: &client, model: cfg.Model, maxTokens: maxTokens}
}

// Complete sends the prompt pair and concatenates the text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && isRateLimit(apiErr.StatusCode) {
			return "", fmt.Errorf("anthropic status %d: %w", apiErr.StatusCode, ports.ErrRateLimited)
		}
		return "", fmt.Errorf("call anthropic: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic returned empty response")
	}
	return text.String(), nil
}

func isRateLimit(status int) bool {
	return status == http.StatusTooManyRequests || status == statusOverloaded
}
