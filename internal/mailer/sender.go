// Package mailer delivers documents by email and keeps a log of every attempt.
package mailer

import (
	"context"
	"io"

	"folio/internal/apperr"
	"folio/internal/config"

	"gopkg.in/gomail.v2"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email. Body is HTML.
type Message struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	cfg  config.SMTPConfig
	from string
}

// NewSMTPSender returns a Sender for cfg. from is used when a message has no
// From address.
func NewSMTPSender(cfg config.SMTPConfig, from string) *SMTPSender {
	return &SMTPSender{cfg: cfg, from: from}
}

// Send delivers msg. It fails with a configuration error when no SMTP host is
// set.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enabled() {
		return apperr.Configuration("SMTP is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := buildMessage(msg, s.from)
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	return d.DialAndSend(m)
}

func buildMessage(msg Message, defaultFrom string) *gomail.Message {
	from := msg.From
	if from == "" {
		from = defaultFrom
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)
	for _, a := range msg.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		m.Attach(a.Filename, settings...)
	}
	return m
}
