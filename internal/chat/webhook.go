// Package chat forwards operator notifications to the configured webhook.
package chat

import (
	"context"
	"log/slog"
	"net/http"

	"resty.dev/v3"

	"transcribot/internal/config"
	"transcribot/internal/core"
)

type Webhook struct {
	Logger *slog.Logger
	Config *config.Config

	http *resty.Client
}

var _ core.Notifier = (*Webhook)(nil)

func (w *Webhook) Init(context.Context) error {
	w.Logger = w.Logger.With("component", "chat.Webhook")
	w.http = resty.New()
	return nil
}

func (w *Webhook) Shutdown(context.Context) error {
	return w.http.Close()
}

// Send posts one message to the webhook. Delivery is best-effort: every
// failure is logged and swallowed, a dead webhook never stalls the bot.
func (w *Webhook) Send(ctx context.Context, text string) {
	if w.Config.ChatWebhookURL == "" {
		w.Logger.Debug("chat webhook not configured, dropping message", "text", text)
		return
	}

	resp, err := w.http.R().WithContext(ctx).
		SetBody(map[string]string{
			"channel": w.Config.ChatChannel,
			"text":    text,
		}).
		Post(w.Config.ChatWebhookURL)
	if err != nil {
		w.Logger.Error("chat webhook delivery failed", "error", err)
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		w.Logger.Error("chat webhook rejected message", "status", resp.Status())
	}
}
