// Package mail delivers transactional email (activation, two-factor, and
// password-reset codes). Delivery is best-effort: the auth flows persist
// their codes before dispatch and treat a send failure as a soft error.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"text/template"
)

// Template selects the message body.
type Template string

const (
	TemplateActivation    Template = "activation"
	TemplateTwoFactor     Template = "two_factor"
	TemplatePasswordReset Template = "password_reset"
)

// ErrMail wraps transport failures.
var ErrMail = errors.New("mail dispatch failed")

// Mailer sends a templated message. Implementations must be safe for
// concurrent use and honor ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, to string, tmpl Template, data map[string]string) error
	Ping(ctx context.Context) error
}

type message struct {
	subject string
	body    *template.Template
}

var messages = map[Template]message{
	TemplateActivation: {
		subject: "Activate your account",
		body: template.Must(template.New("activation").Parse(
			"Hello {{.Username}},\r\n\r\n" +
				"Your activation code is {{.Code}}. It expires in {{.ExpireIn}}.\r\n")),
	},
	TemplateTwoFactor: {
		subject: "Your login code",
		body: template.Must(template.New("two_factor").Parse(
			"Hello {{.Username}},\r\n\r\n" +
				"Your login code is {{.Code}}. It expires in {{.ExpireIn}}.\r\n" +
				"If you did not try to log in, change your password now.\r\n")),
	},
	TemplatePasswordReset: {
		subject: "Reset your password",
		body: template.Must(template.New("password_reset").Parse(
			"Hello {{.Username}},\r\n\r\n" +
				"Your password reset code is {{.Code}}. It expires in {{.ExpireIn}}.\r\n" +
				"If you did not request this, you can ignore this message.\r\n")),
	},
}

func render(tmpl Template, data map[string]string) (subject, body string, err error) {
	msg, ok := messages[tmpl]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown template %q", ErrMail, tmpl)
	}
	var buf bytes.Buffer
	if err := msg.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMail, err)
	}
	return msg.subject, buf.String(), nil
}

// LogMailer logs instead of sending. Used in development when SMTP is not
// configured.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to string, tmpl Template, data map[string]string) error {
	subject, body, err := render(tmpl, data)
	if err != nil {
		return err
	}
	if m.Log != nil {
		m.Log.Info("mail (log only)", "to", to, "subject", subject, "body", body)
	}
	return nil
}

func (m *LogMailer) Ping(context.Context) error { return nil }

// Recorder captures sent messages for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Recorded
	fail error
}

// Recorded is one captured message.
type Recorded struct {
	To       string
	Template Template
	Data     map[string]string
}

func (m *Recorder) Send(ctx context.Context, to string, tmpl Template, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	m.sent = append(m.sent, Recorded{To: to, Template: tmpl, Data: copied})
	return nil
}

func (m *Recorder) Ping(context.Context) error { return nil }

// Sent returns a copy of the captured messages.
func (m *Recorder) Sent() []Recorded {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Recorded, len(m.sent))
	copy(out, m.sent)
	return out
}

// FailWith makes subsequent Sends return err.
func (m *Recorder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}
