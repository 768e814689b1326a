// Package mail is the outbound notification collaborator. Delivery is
// best-effort: callers log failures and move on, they never roll back
// business state because a message did not leave the building.
package mail

//go:generate mockgen -destination=mocks/mocks.go -package=mocks gatepass/internal/mail Mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"gatepass/internal/platform/config"
)

// Attachment references a file to attach to a message. Inline attachments
// (non-empty ContentID) can be referenced from the HTML body via cid:.
type Attachment struct {
	Filename  string
	Path      string
	ContentID string
}

// Mailer delivers a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string, attachments []Attachment) error
}

// SMTPMailer delivers through an SMTP relay using go-mail.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTP builds an SMTP mailer from config. Returns nil when no host is
// configured so callers can fall back to the noop mailer.
func NewSMTP(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string, attachments []Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	for _, a := range attachments {
		if a.ContentID != "" {
			msg.EmbedFile(a.Path, gomail.WithFileName(a.ContentID))
		} else {
			msg.AttachFile(a.Path, gomail.WithFileName(a.Filename))
		}
	}

	return m.client.DialAndSendWithContext(ctx, msg)
}

// Noop drops every message. Used when SMTP is not configured and in tests.
type Noop struct{}

func (Noop) Send(context.Context, string, string, string, []Attachment) error { return nil }
