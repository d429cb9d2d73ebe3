package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/wneessen/go-mail"
)

// SMTPConfig configures an SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	From     string
	Timeout  time.Duration

	// Insecure allows plaintext connections when the server offers no STARTTLS.
	Insecure bool
}

// SMTPMailer sends messages through an SMTP submission server.
type SMTPMailer struct {
	cfg      SMTPConfig
	password PasswordSource
	log      *slog.Logger
}

var _ interfaces.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer validates the configuration and returns a mailer.
func NewSMTPMailer(cfg SMTPConfig, password PasswordSource, log *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if password == nil {
		password = StaticPassword("")
	}

	return &SMTPMailer{cfg: cfg, password: password, log: log}, nil
}

// Send delivers one message. Any failure is returned; nothing is retried.
func (m *SMTPMailer) Send(ctx context.Context, msg interfaces.Message) error {
	start := time.Now()

	email := mail.NewMsg()
	if err := email.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := email.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := m.client(ctx)
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		m.log.Error("Failed to send email",
			slog.String("host", m.cfg.Host),
			slog.String("to", msg.To),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("smtp delivery to %s failed: %w", msg.To, err)
	}

	m.log.Info("Email sent",
		slog.String("to", msg.To),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (m *SMTPMailer) client(ctx context.Context) (*mail.Client, error) {
	tlsPolicy := mail.TLSMandatory
	if m.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
		mail.WithTimeout(m.cfg.Timeout),
	}

	if m.cfg.Username != "" {
		password, err := m.password.Password(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain smtp password: %w", err)
		}
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}
