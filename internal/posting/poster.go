// Package posting publishes generated text to a social network account.
package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/postbot/internal/config"
)

// ErrPosting wraps every publish failure, including missing credentials.
var ErrPosting = errors.New("posting failed")

// Poster publishes text. Nothing is returned on success.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// New builds the poster for the configured provider. Credentials are not
// checked here; a missing token fails the first Post call.
//
//nolint:ireturn // provider is selected at runtime
func New(cfg *config.Config, log *slog.Logger) (Poster, error) {
	switch cfg.Posting.Provider {
	case "mastodon":
		return NewMastodonPoster(cfg.Mastodon, cfg.Posting.Timeout, log), nil
	case "telegram":
		return NewTelegramPoster(cfg.Telegram, cfg.Posting.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown posting provider %q", cfg.Posting.Provider)
	}
}
