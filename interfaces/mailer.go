package interfaces

import "context"

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email. A nil error means the message was handed to the
// relay; it is not a delivery receipt.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
