package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPConfig points at the outbound mail relay.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// Mailer delivers HTML email over SMTP. When no host is configured the mailer
// logs instead of sending, which keeps local development quiet.
type Mailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   func(addr, from string, to []string, msg []byte) error
}

// NewMailer constructs the mailer.
func NewMailer(cfg SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Send delivers one message.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.cfg.Host == "" {
		m.logger.Info("smtp not configured, skipping delivery",
			slog.String("to", to), slog.String("subject", subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, m.cfg.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
