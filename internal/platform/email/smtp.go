// Package email delivers HTML mail over SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/phrazzld/taskmgr-api/internal/config"
	"github.com/phrazzld/taskmgr-api/internal/redact"
)

const sendTimeout = 30 * time.Second

// sender is the part of *mail.Client used by SMTPTransport.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPTransport sends messages through an authenticated SMTP relay.
type SMTPTransport struct {
	client   sender
	from     string
	fromName string
	logger   *slog.Logger
}

// NewSMTPTransport builds a transport from cfg. STARTTLS is required and
// PLAIN auth is used with the configured credentials.
func NewSMTPTransport(cfg config.EmailConfig, logger *slog.Logger) (*SMTPTransport, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(sendTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPTransport{
		client:   client,
		from:     cfg.Sender(),
		fromName: cfg.FromName,
		logger:   logger.With(slog.String("component", "smtp")),
	}, nil
}

// Message builds the mail message without sending it.
func (t *SMTPTransport) Message(to, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	var err error
	if t.fromName != "" {
		err = msg.FromFormat(t.fromName, t.from)
	} else {
		err = msg.From(t.from)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

// Send implements sweep.Transport.
func (t *SMTPTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg, err := t.Message(to, subject, htmlBody)
	if err != nil {
		return err
	}

	if err := t.client.DialAndSendWithContext(ctx, msg); err != nil {
		t.logger.Warn("smtp delivery failed", slog.String("error", redact.Error(err)))
		return fmt.Errorf("smtp delivery failed: %w", err)
	}

	t.logger.Debug("smtp delivery succeeded", slog.String("subject", subject))
	return nil
}
