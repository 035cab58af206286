package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram implements ports.Notifier via the Telegram bot API. When the
// token or chat id is missing the notifier is constructed disabled and every
// Notify is a silent no-op.
type Telegram struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
}

// NewTelegram creates the notifier. Empty credentials disable it.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
	}
}

// NewTelegramWithBase creates a notifier against a custom API base, for tests.
func NewTelegramWithBase(baseURL, token, chatID string) *Telegram {
	t := NewTelegram(token, chatID)
	t.baseURL = strings.TrimRight(baseURL, "/")
	return t
}

// Enabled reports whether credentials are configured.
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// Notify fires one sendMessage call. Best effort: the caller logs the error
// and keeps trading regardless.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if !t.Enabled() {
		return nil
	}

	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify.Telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify.Telegram: status %d", resp.StatusCode)
	}
	return nil
}
