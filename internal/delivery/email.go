package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/wneessen/go-mail"
)

const defaultSMTPTimeout = 10 * time.Second

type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Timeout  time.Duration
}

// mailer is the part of *mail.Client the sender needs.
type mailer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

var _ Sender = (*SMTPEmailSender)(nil)

// SMTPEmailSender delivers price alerts over authenticated SMTP with
// mandatory STARTTLS. Without sender credentials it stays constructed but
// reports ErrEmailNotConfigured from Ready.
type SMTPEmailSender struct {
	from   string
	client mailer
}

func NewSMTPEmailSender(cfg SMTPConfig) (*SMTPEmailSender, error) {
	if strings.TrimSpace(cfg.Sender) == "" || cfg.Password == "" {
		return &SMTPEmailSender{}, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Sender),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newSMTPEmailSender(cfg.Sender, client), nil
}

func newSMTPEmailSender(from string, client mailer) *SMTPEmailSender {
	return &SMTPEmailSender{from: strings.TrimSpace(from), client: client}
}

func (s *SMTPEmailSender) Channel() domain.Channel { return domain.ChannelEmail }

func (s *SMTPEmailSender) Ready() error {
	if s == nil || s.client == nil || s.from == "" {
		return ErrEmailNotConfigured
	}
	return nil
}

func (s *SMTPEmailSender) Send(ctx context.Context, n *domain.Notification) (string, error) {
	if err := s.Ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(n.Recipient) == "" {
		return "", ErrMissingRecipient
	}

	body, err := EmailBody(n.Payload)
	if err != nil {
		return "", err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return "", fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(n.Recipient); err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(EmailSubject(n.Payload))
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain, PushBody(n.Payload))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}

	ids := msg.GetGenHeader(mail.HeaderMessageID)
	if len(ids) == 0 {
		return "", nil
	}
	return strings.Trim(ids[0], "<>"), nil
}
