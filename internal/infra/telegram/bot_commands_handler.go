// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"questionnaire_reminder/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func adminHelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Available admin commands:\n\n")
	helpText.WriteString("/templates\n - List the message templates and whether each one is customised.\n\n")
	helpText.WriteString("/show_template <key>\n - Show the text currently used for a template.\n\n")
	helpText.WriteString("/set_template <key> <text>\n - Store a custom text. Placeholders: {coursename}, {questionnairename}, {url}.\n\n")
	helpText.WriteString("/reset_template <key>\n - Go back to the built-in text.\n\n")
	helpText.WriteString("/run_now\n - Run the three reminder stages immediately.\n\n")
	helpText.WriteString("/last_log [n]\n - Show the last n reminder log records (default 10, max 50).\n\n")
	helpText.WriteString("/help\n - Show this message.\n\n")
	fmt.Fprintf(&helpText, "Template keys: %s", strings.Join(reminder.TemplateKeys(), ", "))
	return helpText.String()
}

func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	h := &botCommands{adminTelegramID: adminTelegramID, logger: baseLogger.WithField("handler_group", "start_help")}
	b.Handle("/start", h.handleStart)
	b.Handle("/help", h.handleHelp)
}

type botCommands struct {
	adminTelegramID int64
	logger          *logrus.Entry
}

func (h *botCommands) handleStart(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/start").WithField("sender_id", senderID)
	logCtx.Info("Processing /start command")

	if senderID == h.adminTelegramID {
		logCtx.Info("User identified as Admin")
		return c.Send(fmt.Sprintf("Hello %s! I send the daily questionnaire reminders and will post a report after every run. Use /help for the list of commands.", c.Sender().FirstName))
	}

	logCtx.Info("User is unknown")
	return c.Send("Hello! This bot is reserved for the administrators of the questionnaire reminders.")
}

func (h *botCommands) handleHelp(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/help").WithField("sender_id", senderID)
	logCtx.Info("Processing /help command")

	if senderID == h.adminTelegramID {
		logCtx.Info("User identified as Admin, sending admin help.")
		return c.Send(adminHelpText())
	}

	logCtx.Info("User is unknown, sending restricted help.")
	return c.Send("There are no commands available for you.")
}
