// internal/infra/telegram/client.go
package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// Client sends plain messages to a chat.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID} // The admin talks to the bot in a private chat
	_, err := tba.bot.Send(recipient, text, options)
	return err
}

// Reporter posts run reports to the admin chat. It implements messaging.Reporter.
type Reporter struct {
	client      Client
	adminChatID int64
}

func NewReporter(client Client, adminChatID int64) *Reporter {
	return &Reporter{client: client, adminChatID: adminChatID}
}

func (r *Reporter) Report(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.client.SendMessage(r.adminChatID, truncate(text, maxMessageLength), &telebot.SendOptions{DisableWebPagePreview: true})
}

// Telegram rejects longer messages.
const maxMessageLength = 4096

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
