package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailMessage is a rendered email awaiting delivery.
type EmailMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Mailer delivers rendered emails.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	addr string
}

// NewSMTPMailer builds a mailer for the given host:port relay address.
func NewSMTPMailer(addr string) *SMTPMailer {
	return &SMTPMailer{addr: addr}
}

// Send writes the message to the relay. A blank relay address makes Send a
// no-op so local setups without SMTP still work.
func (m *SMTPMailer) Send(_ context.Context, msg EmailMessage) error {
	if m.addr == "" {
		return nil
	}
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n",
		msg.From, strings.Join(msg.To, ", "), msg.Subject)
	return smtp.SendMail(m.addr, nil, msg.From, msg.To, []byte(headers+msg.Body))
}
