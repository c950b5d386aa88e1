package reminder

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers reminders by email over SMTPS (implicit TLS, the
// Gmail-on-465 setup).
type EmailSender struct {
	config EmailConfig
}

// NewEmailSender creates an email channel sender.
func NewEmailSender(config EmailConfig) *EmailSender {
	if config.Port == 0 {
		config.Port = 465
	}
	if config.From == "" {
		config.From = config.Username
	}
	return &EmailSender{config: config}
}

func (e *EmailSender) Name() string {
	return "email"
}

// Send delivers a reminder email. The message mirrors the assistant's
// reminder template: subject carries the task content, the body repeats it.
func (e *EmailSender) Send(ctx context.Context, recipient string, content string) error {
	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)

	subject := "Maya Reminder: " + sanitizeHeader(content)
	body := fmt.Sprintf("This is a friendly reminder for your scheduled task:\r\n\r\n'%s'\r\n", content)
	msg := strings.Join([]string{
		"From: " + e.config.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	dialer := &tls.Dialer{NetDialer: &net.Dialer{}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, e.config.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(e.config.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

// sanitizeHeader strips CR/LF so task content cannot inject headers.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
