package mailer

import (
	"errors"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp sender is not configured")

// Sender is the part of gomail's dialer the mailer needs.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends plain-text emails through an SMTP relay.
type SMTPMailer struct {
	from   string
	sender Sender
	logger *logger.Logger
}

func NewSMTPMailer(host string, port int, from, password string, log *logger.Logger) *SMTPMailer {
	var sender Sender
	if from != "" {
		sender = gomail.NewDialer(host, port, from, password)
	}
	return newSMTPMailer(from, sender, log)
}

func newSMTPMailer(from string, sender Sender, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{from: from, sender: sender, logger: log.Named("Mailer")}
}

func (m *SMTPMailer) SendEmail(to, subject, body string) error {
	if m.sender == nil {
		m.logger.Warn("SMTP is not configured, email not sent", "to", to, "subject", subject)
		return ErrNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send email", "to", to, "subject", subject, "error", err)
		return err
	}
	m.logger.Debug("Email sent", "to", to, "subject", subject)
	return nil
}
