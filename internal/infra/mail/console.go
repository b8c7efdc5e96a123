package mail

import (
	"context"
	"fmt"
	"strings"

	"questionnaire_reminder/internal/domain/messaging"

	"github.com/sirupsen/logrus"
)

// ConsoleSender prints messages to the log instead of delivering them.
type ConsoleSender struct {
	logger *logrus.Entry
}

func NewConsoleSender(logger *logrus.Entry) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(ctx context.Context, msg messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To.Email) == "" {
		return fmt.Errorf("recipient %q has no email address", msg.To.Name)
	}
	s.logger.WithFields(logrus.Fields{
		"to":      msg.To.Email,
		"subject": msg.Subject,
	}).Info("\n" + Render(msg))
	return nil
}

// Render formats a message as RFC 5322-style headers followed by the plain-text body.
func Render(msg messaging.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", formatAddress(msg.From))
	fmt.Fprintf(&b, "To: %s\n", formatAddress(msg.To))
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Content-Type: text/plain; charset=utf-8\n\n")
	b.WriteString(msg.Body)
	return b.String()
}

func formatAddress(a messaging.Address) string {
	if a.Name == "" {
		return "<" + a.Email + ">"
	}
	return fmt.Sprintf("%q <%s>", a.Name, a.Email)
}
