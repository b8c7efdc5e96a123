// internal/domain/messaging/message.go
package messaging

import "context"

// Address is a display name plus email address.
type Address struct {
	Name  string
	Email string
}

// Message is a plain-text notification for a single recipient.
type Message struct {
	From    Address
	To      Address
	Subject string
	Body    string
}

// Sender delivers messages. A nil error means the message was accepted for delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Reporter publishes a short operator-facing text, e.g. a run summary.
type Reporter interface {
	Report(ctx context.Context, text string) error
}
