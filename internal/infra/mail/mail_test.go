package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"questionnaire_reminder/internal/domain/messaging"

	"github.com/sendgrid/rest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage() messaging.Message {
	return messaging.Message{
		From:    messaging.Address{Name: "Do not reply", Email: "noreply@lms.example.org"},
		To:      messaging.Address{Name: "Anna Rossi", Email: "anna@example.org"},
		Subject: "Valutazione della didattica - English B2",
		Body:    "Please answer: https://lms.example.org/mod/questionnaire/view.php?id=101",
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleMessage())
	assert.Contains(t, out, "From: \"Do not reply\" <noreply@lms.example.org>\n")
	assert.Contains(t, out, "To: \"Anna Rossi\" <anna@example.org>\n")
	assert.Contains(t, out, "Subject: Valutazione della didattica - English B2\n")
	assert.Contains(t, out, "\n\nPlease answer: https://lms.example.org/mod/questionnaire/view.php?id=101")
}

func TestConsoleSender(t *testing.T) {
	l, hook := test.NewNullLogger()
	s := NewConsoleSender(logrus.NewEntry(l))

	require.NoError(t, s.Send(context.Background(), sampleMessage()))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "anna@example.org", hook.LastEntry().Data["to"])

	msg := sampleMessage()
	msg.To.Email = ""
	assert.Error(t, s.Send(context.Background(), msg))
}

func TestSendGridSenderPayload(t *testing.T) {
	var captured rest.Request
	s := NewSendGridSender("SG.key")
	s.api = func(req rest.Request) (*rest.Response, error) {
		captured = req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	require.NoError(t, s.Send(context.Background(), sampleMessage()))
	assert.Equal(t, rest.Method(http.MethodPost), captured.Method)
	assert.Equal(t, "https://api.sendgrid.com/v3/mail/send", captured.BaseURL)
	assert.Equal(t, "Bearer SG.key", captured.Headers["Authorization"])

	var payload struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
			Subject string `json:"subject"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(captured.Body, &payload))
	assert.Equal(t, "noreply@lms.example.org", payload.From.Email)
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, "anna@example.org", payload.Personalizations[0].To[0].Email)
	assert.Equal(t, "Valutazione della didattica - English B2", payload.Personalizations[0].Subject)
	require.Len(t, payload.Content, 1)
	assert.Equal(t, "text/plain", payload.Content[0].Type)
}

func TestSendGridSenderFailures(t *testing.T) {
	s := NewSendGridSender("SG.key")

	s.api = func(rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: http.StatusUnauthorized, Body: `{"errors":[]}`}, nil
	}
	assert.ErrorContains(t, s.Send(context.Background(), sampleMessage()), "status 401")

	s.api = func(rest.Request) (*rest.Response, error) {
		return nil, errors.New("dial tcp: timeout")
	}
	assert.ErrorContains(t, s.Send(context.Background(), sampleMessage()), "sendgrid request failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, sampleMessage()), context.Canceled)
}
