package notification

import (
	"context"
	"log/slog"
)

const (
	// KindPasswordResetOTP indicates a password-reset code delivery.
	KindPasswordResetOTP = "password_reset_otp"
	// KindEmailVerification indicates an email-verification link delivery.
	KindEmailVerification = "email_verification"
)

// Message describes a delivery to an account's email address.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages over an out-of-band channel. The auth flows
// treat delivery as best effort; a failed send is logged by the caller and
// never fails the enclosing operation.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes deliveries to the structured logger. It stands in
// for a real channel in development and tests.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"to", message.To,
		"subject", message.Subject,
		"body", message.Body,
	)
	return nil
}
