// Package completion talks to the chat-completion API.
package completion

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"order-assistant/config"
	"order-assistant/models"
)

const (
	DefaultTimeout = 30 * time.Second

	temperature = 0.7
	maxTokens   = 1000
)

// Result is the first choice of a completion.
type Result struct {
	Content   string
	ToolCalls []models.ToolCall
}

// Completer is what the assistant needs from the completion API.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*Result, error)
}

type Client struct {
	client *openai.Client
	model  string
	apiKey string
	logger *slog.Logger
}

func NewClient(cfg config.OpenAIConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Complete sends one completion request offering the order tool. Failures
// are returned as *Error.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*Result, error) {
	if !c.Configured() {
		return nil, &Error{Kind: KindConfiguration, Err: ErrMissingCredential}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Tools:       []openai.Tool{OrderTool()},
		ToolChoice:  "auto",
	}

	c.logger.Info("sending request to completion API",
		"model", c.model,
		"messages_count", len(messages),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		cerr := classify(err)
		c.logger.Error("completion API error",
			"kind", cerr.Kind.String(),
			"status", cerr.Status,
			"error", err,
		)
		return nil, cerr
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("completion API returned no choices", "id", resp.ID)
		return nil, &Error{Kind: KindEmpty}
	}

	msg := resp.Choices[0].Message
	result := &Result{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, models.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: models.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	c.logger.Info("completion API response",
		"has_content", result.Content != "",
		"has_tool_calls", len(result.ToolCalls) > 0,
		"tool_calls_count", len(result.ToolCalls),
	)
	return result, nil
}
