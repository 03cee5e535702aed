package notify

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/softtechniques/softbot/pkg/logger"
)

// Mailer sends one message to a set of recipients.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// SMTPMailer talks plain SMTP with STARTTLS and auth. Connection setup is
// bounded by dialTimeout so a dead relay cannot hang a booking.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

const dialTimeout = 10 * time.Second

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP relay: %w", err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, strings.Join(to, ", "), subject, body)

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

// NoopMailer is used when SMTP credentials are not configured. It logs
// what would have been sent at debug level.
type NoopMailer struct{}

func (NoopMailer) Send(to []string, subject, _ string) error {
	logger.Debug("Email notifications disabled, dropping message",
		zap.Strings("to", to),
		zap.String("subject", subject),
	)
	return nil
}
