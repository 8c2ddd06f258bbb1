// Package completion turns a bot prompt into generated text using a
// language-model provider.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/postbot/internal/config"
)

// ErrCompletion wraps every provider failure, including missing credentials.
var ErrCompletion = errors.New("completion failed")

// Client generates text for a prompt. An empty string with a nil error means
// the provider produced nothing.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the client for the configured provider. Credentials are not
// checked here; a missing key fails the first Generate call.
//
//nolint:ireturn // provider is selected at runtime
func New(cfg *config.Config, log *slog.Logger) (Client, error) {
	switch cfg.Completion.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAI, cfg.Completion, log), nil
	case "gemini":
		return NewGeminiClient(cfg.Gemini, cfg.Completion, log), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}
}
