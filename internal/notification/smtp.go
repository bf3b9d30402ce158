package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the settings for the SMTP delivery channel.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers messages as plain-text email over SMTP.
type SMTPNotifier struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPNotifier constructs an SMTP-backed notifier.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPNotifier{cfg: cfg, dialer: dialer}, nil
}

// Send dials the SMTP server and delivers a single message.
func (n *SMTPNotifier) Send(_ context.Context, message Message) error {
	if message.To == "" {
		return fmt.Errorf("no recipient specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.From)
	msg.SetHeader("To", message.To)
	msg.SetHeader("Subject", message.Subject)
	msg.SetBody("text/plain", message.Body)

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s mail: %w", message.Kind, err)
	}
	return nil
}
