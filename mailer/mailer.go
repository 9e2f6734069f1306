package mailer

import (
	"context"
	"fmt"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage renders the email that carries a verification code.
func VerificationMessage(appName, to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s email verification code", appName),
		Body: fmt.Sprintf(
			"Your %s verification code is %s.\n\nThe code expires in %d minutes. If you did not create an account you can ignore this email.\n",
			appName, code, int(ttl.Minutes()),
		),
	}
}
