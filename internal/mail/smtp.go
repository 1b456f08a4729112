package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig carries everything the SMTP transport needs.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// FromName is the display name shown next to the sender address.
	FromName string

	// ReplyTo, when set, directs replies to the club mailbox instead of
	// the sending account.
	ReplyTo string
}

// SMTPTransport delivers mail over authenticated STARTTLS SMTP. It is the
// universal fallback transport and the primary one for non-Microsoft
// recipient domains.
type SMTPTransport struct {
	cfg    SMTPConfig
	client *gomail.Client
	logger *slog.Logger
}

// NewSMTPTransport connects lazily: the client dials per send, so a bad
// password surfaces on the first delivery, not at startup.
func NewSMTPTransport(cfg SMTPConfig, logger *slog.Logger) (*SMTPTransport, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring smtp client: %w", err)
	}
	return &SMTPTransport{cfg: cfg, client: client, logger: logger}, nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

// Send builds a multipart (text + HTML) message and delivers it.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(t.cfg.FromName, t.cfg.Username); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	if t.cfg.ReplyTo != "" {
		if err := m.ReplyTo(t.cfg.ReplyTo); err != nil {
			return fmt.Errorf("setting reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	m.SetUserAgent("AIHUB-VVIT Mailer")
	m.SetGenHeader(gomail.HeaderOrganization, "AIHUB-VVIT")

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery to %s: %w", msg.To, err)
	}
	return nil
}

// Close releases the underlying SMTP connection if one is open.
func (t *SMTPTransport) Close() error {
	if err := t.client.Close(); err != nil {
		// Close on an already-closed client is not worth surfacing.
		t.logger.Debug("smtp close", slog.String("error", err.Error()))
	}
	return nil
}
