package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/postbot/internal/config"
)

// GeminiClient generates text with Google's Gemini API. The SDK client is
// created on first use so that a missing key only fails the cycle that needs it.
type GeminiClient struct {
	cfg     config.GeminiConfig
	log     *slog.Logger
	timeout time.Duration

	contentConfig *genai.GenerateContentConfig

	mu          sync.Mutex
	genaiClient *genai.Client
}

// NewGeminiClient creates a Gemini client. No network call is made.
func NewGeminiClient(cfg config.GeminiConfig, cc config.CompletionConfig, log *slog.Logger) *GeminiClient {
	temperature := cfg.Temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	if cc.Instruction != "" {
		contentConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cc.Instruction}}}
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client configured", "model", cfg.Model)

	return &GeminiClient{
		cfg:           cfg,
		log:           logger,
		timeout:       cc.Timeout,
		contentConfig: contentConfig,
	}
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genaiClient != nil {
		return c.genaiClient, nil
	}

	if c.cfg.APIKey == "" {
		return nil, errors.New("gemini API key is not configured")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c.genaiClient = gi
	return gi, nil
}

// Generate sends the prompt with the configured system instruction.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	gi, err := c.sdk(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, gi, contents)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	text, err := extractText(resp)
	if err != nil {
		c.log.WarnContext(ctx, "Gemini response rejected", "error", err)
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	return text, nil
}

func (c *GeminiClient) generateContentWithRetries(ctx context.Context, gi *genai.Client, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var err error
	for i := 0; i <= c.cfg.MaxRetries; i++ {
		var resp *genai.GenerateContentResponse
		resp, err = gi.Models.GenerateContent(ctx, c.cfg.Model, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		code := apiErrorCode(err)
		if (code != 500 && code != 503) || i == c.cfg.MaxRetries {
			break
		}

		c.log.InfoContext(ctx, "Retrying Gemini API call", "attempt", i+1, "max_retries", c.cfg.MaxRetries, "code", code, "delay", c.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("gemini API call failed: %w", err)
}

func apiErrorCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}

// extractText returns the trimmed response text. A response that finished
// normally without text yields an empty string and no error.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("nil response")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("prompt blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("response has no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonUnspecified &&
		candidate.FinishReason != genai.FinishReasonStop &&
		candidate.FinishReason != genai.FinishReasonMaxTokens {
		return "", fmt.Errorf("generation stopped: %s", candidate.FinishReason)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", nil
	}

	return strings.TrimSpace(resp.Text()), nil
}
