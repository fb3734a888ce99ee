// Package notify sends lead notifications to the club managers' Telegram chat.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ironpulse/clubsite/internal/models"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts an HTML formatted message per lead. It satisfies
// services.LeadSink.
type Telegram struct {
	api    sender
	chatID int64
}

// NewTelegram connects to the Bot API; it fails when the token is rejected.
// Every Bot API call is bounded by timeout.
func NewTelegram(token string, chatID int64, timeout time.Duration) (*Telegram, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Deliver(ctx context.Context, n models.LeadNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatLead(n))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	// Send takes no context; stop waiting once ctx is done.
	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram: send: %w", ctx.Err())
	}
}

// FormatLead renders the notification body. User supplied text is escaped.
func FormatLead(n models.LeadNotice) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }
	var b strings.Builder
	b.WriteString("<b>New lead</b>")
	if n.Lead.Source != "" {
		b.WriteString(" (" + esc(n.Lead.Source) + ")")
	}
	b.WriteString("\nName: " + esc(n.Lead.Name))
	b.WriteString("\nPhone: " + esc(n.Lead.Phone))
	if n.ClubName != "" {
		b.WriteString("\nClub: " + esc(n.ClubName))
	}
	if len(n.Recommendations) > 0 {
		b.WriteString("\nQuiz: " + esc(strings.Join(n.Recommendations, ", ")))
	}
	if n.Lead.Comment != "" {
		b.WriteString("\nComment: " + esc(n.Lead.Comment))
	}
	return b.String()
}
