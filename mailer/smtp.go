package mailer

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	account  string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, account, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		account:  account,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.account != "" {
		auth = smtp.PlainAuth("", m.account, m.password, m.host)
	}

	envelopeFrom := m.from
	if parsed, err := mail.ParseAddress(m.from); err == nil {
		envelopeFrom = parsed.Address
	}

	addr := net.JoinHostPort(m.host, m.port)
	if err := m.send(addr, auth, envelopeFrom, []string{msg.To}, m.render(msg)); err != nil {
		return errors.Wrapf(err, "[SMTPMailer.Send] failed to send to %s", msg.To)
	}
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
