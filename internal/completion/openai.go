package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/edgard/postbot/internal/config"
)

// OpenAIClient generates text with the OpenAI chat completions API.
type OpenAIClient struct {
	client      openai.Client
	log         *slog.Logger
	model       string
	instruction string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

// NewOpenAIClient creates a client for the chat completions endpoint. Extra
// request options are appended after the configured ones.
func NewOpenAIClient(cfg config.OpenAIConfig, cc config.CompletionConfig, log *slog.Logger, opts ...option.RequestOption) *OpenAIClient {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized", "model", cfg.Model)

	return &OpenAIClient{
		client:      openai.NewClient(append(base, opts...)...),
		log:         logger,
		model:       cfg.Model,
		instruction: cc.Instruction,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cc.Timeout,
	}
}

// Generate sends the system instruction and prompt and returns the trimmed
// text of the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.instruction),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	}

	c.log.DebugContext(ctx, "Requesting completion", "model", c.model, "prompt_length", len(prompt))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %w", ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrCompletion)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log.DebugContext(ctx, "Completion received", "length", len(text), "finish_reason", resp.Choices[0].FinishReason)
	return text, nil
}
