package posting

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/postbot/internal/config"
	"github.com/edgard/postbot/internal/logger"
)

func TestMastodonPost(t *testing.T) {
	t.Parallel()

	var gotForm url.Values
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/statuses" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "109", "url": "https://social.example/@bot/109", "content": "<p>hello</p>"}`)
	}))
	t.Cleanup(srv.Close)

	p := NewMastodonPoster(config.MastodonConfig{BaseURL: srv.URL, AccessToken: "tok", Visibility: "unlisted"}, 5*time.Second, logger.Discard())
	if err := p.Post(context.Background(), "hello"); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if gotForm.Get("status") != "hello" {
		t.Errorf("status = %q, want hello", gotForm.Get("status"))
	}
	if gotForm.Get("visibility") != "unlisted" {
		t.Errorf("visibility = %q, want unlisted", gotForm.Get("visibility"))
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestMastodonPostFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error": "Validation failed: Text can't be blank"}`)
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		cfg  config.MastodonConfig
	}{
		{name: "server rejects", cfg: config.MastodonConfig{BaseURL: srv.URL, AccessToken: "tok", Visibility: "public"}},
		{name: "missing token", cfg: config.MastodonConfig{BaseURL: srv.URL, Visibility: "public"}},
		{name: "missing base url", cfg: config.MastodonConfig{AccessToken: "tok", Visibility: "public"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewMastodonPoster(tt.cfg, time.Second, logger.Discard())
			if err := p.Post(context.Background(), "text"); !errors.Is(err, ErrPosting) {
				t.Errorf("Post() error = %v, want ErrPosting", err)
			}
		})
	}
}

func TestTelegramPost(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if _, params, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && params["boundary"] != "" {
			mr := multipart.NewReader(r.Body, params["boundary"])
			for {
				part, err := mr.NextPart()
				if err != nil {
					break
				}
				value, _ := io.ReadAll(part)
				switch part.FormName() {
				case "chat_id":
					gotChat = string(value)
				case "text":
					gotText = string(value)
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok": true, "result": {"message_id": 12, "date": 1700000000, "chat": {"id": -100123, "type": "channel"}, "text": "hello"}}`)
	}))
	t.Cleanup(srv.Close)

	p := NewTelegramPoster(config.TelegramConfig{Token: "123:abc", ChatID: "@postbot_channel"}, 5*time.Second, logger.Discard(), tgbot.WithServerURL(srv.URL))
	if err := p.Post(context.Background(), "hello"); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if !strings.HasSuffix(gotPath, "/bot123:abc/sendMessage") {
		t.Errorf("path = %q", gotPath)
	}
	if gotChat != "@postbot_channel" || gotText != "hello" {
		t.Errorf("chat_id = %q, text = %q", gotChat, gotText)
	}
}

func TestTelegramPostWithoutToken(t *testing.T) {
	t.Parallel()

	p := NewTelegramPoster(config.TelegramConfig{ChatID: "@c"}, time.Second, logger.Discard())
	if err := p.Post(context.Background(), "text"); !errors.Is(err, ErrPosting) {
		t.Errorf("Post() error = %v, want ErrPosting", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Posting.Provider = "mastodon"
	p, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New(mastodon) error = %v", err)
	}
	if _, ok := p.(*MastodonPoster); !ok {
		t.Errorf("New(mastodon) = %T", p)
	}

	cfg.Posting.Provider = "telegram"
	p, err = New(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New(telegram) error = %v", err)
	}
	if _, ok := p.(*TelegramPoster); !ok {
		t.Errorf("New(telegram) = %T", p)
	}

	cfg.Posting.Provider = "myspace"
	if _, err := New(cfg, logger.Discard()); err == nil {
		t.Error("New(myspace) expected error")
	}
}
