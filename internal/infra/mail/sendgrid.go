package mail

import (
	"context"
	"fmt"
	"net/http"

	"questionnaire_reminder/internal/domain/messaging"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// SendGridSender delivers messages through the SendGrid v3 mail API.
type SendGridSender struct {
	key string
	api func(request rest.Request) (*rest.Response, error)
}

func NewSendGridSender(key string) *SendGridSender {
	return &SendGridSender{key: key, api: sendgrid.API}
}

func (s *SendGridSender) prepare(msg messaging.Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(msg.From.Name, msg.From.Email))
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To.Email == "" {
		return fmt.Errorf("recipient %q has no email address", msg.To.Name)
	}

	req := sendgrid.GetRequest(s.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := s.api(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected message with status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
