package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends via a plain SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) addr() string {
	return net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))
}

// Send renders the template and hands the message to the relay. The context
// deadline bounds the whole exchange via the send timeout.
func (m *SMTPMailer) Send(ctx context.Context, to string, tmpl Template, data map[string]string) error {
	subject, body, err := render(tmpl, data)
	if err != nil {
		return err
	}

	msg := []byte("From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr(), auth, m.cfg.From, []string{to}, msg)
	}()

	timeout := m.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMail, err)
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w: timeout after %s", ErrMail, timeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrMail, ctx.Err())
	}
}

// Ping dials the relay to verify connectivity.
func (m *SMTPMailer) Ping(ctx context.Context) error {
	d := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", m.addr())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMail, err)
	}
	return conn.Close()
}
