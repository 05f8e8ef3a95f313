package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Sender defines the interface for sending emails.
// The rawMessage parameter should contain the full email message, including headers and body, properly formatted.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSettings describes one SMTP transport.
type SMTPSettings struct {
	Name     string // used in logs, e.g. "primary"
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender implements the Sender interface using net/smtp.
type SMTPSender struct {
	name string
	from string
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates an SMTP transport, or returns nil when no host is configured.
func NewSMTPSender(s SMTPSettings) Sender {
	if s.Host == "" {
		return nil
	}
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return &SMTPSender{
		name: s.Name,
		from: s.From,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", s.Host, s.Port),
	}
}

// Send sends an email using SMTP.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		log.Printf("SMTP (%s): failed to send to %v: %v", s.name, to, err)
		return fmt.Errorf("smtp %s error: %w", s.name, err)
	}
	log.Printf("SMTP (%s): email sent to %v (Subject: %s)", s.name, to, subject)
	return nil
}

// LoggingSender just logs email details. Used in development when no transport is configured.
type LoggingSender struct{}

func (LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	log.Printf("--- Sending Email (Logged) ---")
	log.Printf("To: %v", to)
	log.Printf("Subject: %s", subject)
	log.Println(string(rawMessage))
	log.Println("--- End Email ---")
	return nil
}
