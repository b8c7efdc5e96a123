package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"questionnaire_reminder/internal/app"
	"questionnaire_reminder/internal/domain/auditlog"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgUnauthorized = "Error: you are not allowed to run this command."

// Longest log message shown by /last_log.
const maxLogMessageRunes = 300

type adminHandlers struct {
	ctx             context.Context
	service         *app.AdminService
	adminTelegramID int64
	logger          *logrus.Entry
}

// RegisterAdminHandlers registers handlers for admin commands.
// It requires the bot instance, admin service, and the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	h := &adminHandlers{ctx: ctx, service: adminService, adminTelegramID: adminTelegramID, logger: baseLogger}
	b.Handle("/templates", h.handleTemplates)
	b.Handle("/show_template", h.handleShowTemplate)
	b.Handle("/set_template", h.handleSetTemplate)
	b.Handle("/reset_template", h.handleResetTemplate)
	b.Handle("/run_now", h.handleRunNow)
	b.Handle("/last_log", h.handleLastLog)
}

// begin logs the command and rejects senders other than the admin.
func (h *adminHandlers) begin(c telebot.Context, command string) (*logrus.Entry, bool) {
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return handlerLogger, false
	}
	return handlerLogger, true
}

// replyError maps service errors to a chat reply.
func (h *adminHandlers) replyError(c telebot.Context, handlerLogger *logrus.Entry, err error, action string) error {
	logWithError := handlerLogger.WithError(err)
	switch {
	case errors.Is(err, app.ErrAdminNotAuthorized):
		logWithError.Warn("Admin not authorized (service level)")
		return c.Send(msgUnauthorized)
	case errors.Is(err, app.ErrUnknownTemplateKey), errors.Is(err, app.ErrEmptyTemplate):
		logWithError.Warn("Rejected template command")
		return c.Send("Error: " + err.Error())
	default:
		logWithError.Errorf("Failed to %s", action)
		return c.Send(fmt.Sprintf("An error occurred while trying to %s: %s", action, err.Error()))
	}
}

func (h *adminHandlers) handleTemplates(c telebot.Context) error {
	handlerLogger, ok := h.begin(c, "/templates")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	statuses, err := h.service.ListTemplates(h.ctx, c.Sender().ID)
	if err != nil {
		return h.replyError(c, handlerLogger, err, "list templates")
	}

	var response strings.Builder
	response.WriteString("--- Templates ---\n")
	for _, s := range statuses {
		state := "default"
		if s.Customised {
			state = "customised"
		}
		fmt.Fprintf(&response, "%s: %s\n", s.Key, state)
	}
	return c.Send(response.String())
}

func (h *adminHandlers) handleShowTemplate(c telebot.Context) error {
	handlerLogger, ok := h.begin(c, "/show_template")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	// Expected format: /show_template <key>
	if len(args) != 1 {
		return c.Send("Invalid command format. Use: /show_template <key>")
	}

	text, err := h.service.ShowTemplate(h.ctx, c.Sender().ID, args[0])
	if err != nil {
		return h.replyError(c, handlerLogger, err, "show the template")
	}
	return c.Send(truncate(fmt.Sprintf("%s:\n\n%s", args[0], text), maxMessageLength))
}

func (h *adminHandlers) handleSetTemplate(c telebot.Context) error {
	handlerLogger, ok := h.begin(c, "/set_template")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	// Expected format: /set_template <key> <text>. The text may span several lines,
	// so it is taken from the raw payload instead of the whitespace-split args.
	payload := strings.TrimSpace(c.Message().Payload)
	key, value, found := strings.Cut(payload, " ")
	if !found {
		key, value, found = strings.Cut(payload, "\n")
	}
	if key == "" || !found {
		return c.Send("Invalid command format. Use: /set_template <key> <text>")
	}
	handlerLogger = handlerLogger.WithField("template_key", key)

	if err := h.service.SetTemplate(h.ctx, c.Sender().ID, key, strings.TrimSpace(value)); err != nil {
		return h.replyError(c, handlerLogger, err, "store the template")
	}
	handlerLogger.Info("Template customised")
	return c.Send(fmt.Sprintf("Template %s updated.", key))
}

func (h *adminHandlers) handleResetTemplate(c telebot.Context) error {
	handlerLogger, ok := h.begin(c, "/reset_template")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	// Expected format: /reset_template <key>
	if len(args) != 1 {
		return c.Send("Invalid command format. Use: /reset_template <key>")
	}
	handlerLogger = handlerLogger.WithField("template_key", args[0])

	if err := h.service.ResetTemplate(h.ctx, c.Sender().ID, args[0]); err != nil {
		return h.replyError(c, handlerLogger, err, "reset the template")
	}
	handlerLogger.Info("Template reset to default")
	return c.Send(fmt.Sprintf("Template %s reset to the built-in text.", args[0]))
}

func (h *adminHandlers) handleRunNow(c telebot.Context) error {
	handlerLogger, ok := h.begin(c, "/run_now")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	if err := c.Send("Running the questionnaire reminders now..."); err != nil {
		handlerLogger.WithError(err).Warn("Could not acknowledge /run_now")
	}
	report, err := h.service.RunNow(h.ctx, c.Sender().ID)
	if err != nil {
		return h.replyError(c, handlerLogger, err, "run the reminders")
	}
	handlerLogger.Info("Manual run finished")
	return c.Send(truncate(report.String(), maxMessageLength))
}

func (h *adminHandlers) handleLastLog(c telebot.Context) error {
	handlerLogger, ok := h.begin(c, "/last_log")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	limit := 0
	if args := c.Args(); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return c.Send("Invalid command format. Use: /last_log [n] with n a positive number")
		}
		limit = n
	}

	records, err := h.service.LastLog(h.ctx, c.Sender().ID, limit)
	if err != nil {
		return h.replyError(c, handlerLogger, err, "read the reminder log")
	}
	if len(records) == 0 {
		return c.Send("The reminder log is empty.")
	}

	var response strings.Builder
	for _, r := range records {
		response.WriteString(formatRecord(r))
		response.WriteString("\n")
	}
	return c.Send(truncate(response.String(), maxMessageLength))
}

func formatRecord(r *auditlog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", r.ID, r.LogDate.Format("2006-01-02 15:04:05"))
	if r.Stage != "" {
		fmt.Fprintf(&b, " [%s]", r.Stage.Code())
	}
	if r.CourseID != 0 {
		fmt.Fprintf(&b, " course %d", r.CourseID)
	}
	if r.UserID != 0 {
		fmt.Fprintf(&b, " user %d", r.UserID)
	}
	if r.Outcome != auditlog.OutcomeUnset {
		fmt.Fprintf(&b, " %s", r.Outcome)
	}
	b.WriteString(": ")
	b.WriteString(truncate(r.Message, maxLogMessageRunes))
	return b.String()
}
