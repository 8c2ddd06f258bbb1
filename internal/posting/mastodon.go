package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-mastodon"

	"github.com/edgard/postbot/internal/config"
)

// MastodonPoster publishes statuses to a Mastodon account.
type MastodonPoster struct {
	client     *mastodon.Client
	log        *slog.Logger
	configured bool
	visibility string
	timeout    time.Duration
}

// NewMastodonPoster creates a poster for the instance at cfg.BaseURL.
func NewMastodonPoster(cfg config.MastodonConfig, timeout time.Duration, log *slog.Logger) *MastodonPoster {
	client := mastodon.NewClient(&mastodon.Config{
		Server:      cfg.BaseURL,
		AccessToken: cfg.AccessToken,
	})

	logger := log.With("component", "mastodon_poster")
	logger.Info("Mastodon poster initialized", "server", cfg.BaseURL, "visibility", cfg.Visibility)

	return &MastodonPoster{
		client:     client,
		log:        logger,
		configured: cfg.BaseURL != "" && cfg.AccessToken != "",
		visibility: cfg.Visibility,
		timeout:    timeout,
	}
}

// Post publishes text as a new status.
func (p *MastodonPoster) Post(ctx context.Context, text string) error {
	if !p.configured {
		return fmt.Errorf("%w: %w", ErrPosting, errors.New("mastodon base URL or access token is not configured"))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	status, err := p.client.PostStatus(ctx, &mastodon.Toot{
		Status:     text,
		Visibility: p.visibility,
	})
	if err != nil {
		return fmt.Errorf("%w: mastodon status post: %w", ErrPosting, err)
	}

	p.log.InfoContext(ctx, "Posted status", "status_id", status.ID, "url", status.URL)
	return nil
}
