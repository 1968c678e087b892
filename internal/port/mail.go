package port

import "context"

// Message is an outbound HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages to an external sink.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
