package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/postbot/internal/config"
)

// TelegramPoster publishes messages to a Telegram channel or chat. The bot
// API client is created on first use.
type TelegramPoster struct {
	cfg     config.TelegramConfig
	log     *slog.Logger
	timeout time.Duration
	opts    []tgbot.Option

	mu  sync.Mutex
	bot *tgbot.Bot
}

// NewTelegramPoster creates a poster for cfg.ChatID. Extra bot options are
// appended after the defaults.
func NewTelegramPoster(cfg config.TelegramConfig, timeout time.Duration, log *slog.Logger, opts ...tgbot.Option) *TelegramPoster {
	logger := log.With("component", "telegram_poster")
	logger.Info("Telegram poster configured", "chat_id", cfg.ChatID)

	return &TelegramPoster{
		cfg:     cfg,
		log:     logger,
		timeout: timeout,
		opts:    opts,
	}
}

func (p *TelegramPoster) client() (*tgbot.Bot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bot != nil {
		return p.bot, nil
	}
	if p.cfg.Token == "" || p.cfg.ChatID == "" {
		return nil, errors.New("telegram token or chat id is not configured")
	}

	opts := append([]tgbot.Option{tgbot.WithSkipGetMe()}, p.opts...)
	b, err := tgbot.New(p.cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	p.bot = b
	return b, nil
}

// Post sends text as a new message.
func (p *TelegramPoster) Post(ctx context.Context, text string) error {
	b, err := p.client()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPosting, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: p.cfg.ChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("%w: telegram send message: %w", ErrPosting, err)
	}

	p.log.InfoContext(ctx, "Posted message", "chat_id", p.cfg.ChatID, "message_id", msg.ID)
	return nil
}
