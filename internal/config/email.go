package config

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// NewMailer picks the delivery backend from MAIL_PROVIDER.
func NewMailer(cfg *AppConfig, logger *zap.Logger) Mailer {
	switch cfg.Mail.Provider {
	case "resend":
		logger.Info("Email service initialized", zap.String("provider", "resend"))
		return &ResendMailer{client: resend.NewClient(cfg.Mail.ResendAPIKey), from: cfg.Mail.From}
	case "smtp":
		logger.Info("Email service initialized", zap.String("provider", "smtp"))
		return &SMTPMailer{
			dialer: gomail.NewDialer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword),
			from:   cfg.Mail.From,
		}
	default:
		logger.Info("Email delivery disabled")
		return &LogMailer{logger: logger}
	}
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func (m *ResendMailer) Send(_ context.Context, to, subject, html string) error {
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send email via resend: %w", err)
	}
	return nil
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}

// LogMailer only records what would have been sent.
type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Debug("Email suppressed", zap.String("to", to), zap.String("subject", subject))
	return nil
}
