package mailer

import (
	"fmt"

	"github.com/go-gomail/gomail"

	"github.com/swiftcare-health/swiftcare-api/internal/config"
)

// Sender delivers notification email. The interface keeps SMTP out of the
// service layer and lets tests substitute a recorder.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

// NopSender is used when SMTP is disabled (development, tests).
type NopSender struct{}

func (NopSender) Send(string, string, string) error { return nil }
