package ports

import (
	"context"
	"time"
)

// MailMessage is a single outbound email.
type MailMessage struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// MailSender is an outbound mail transport (SendGrid, SMTP, Kafka, ...).
type MailSender interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// VerificationMailer renders and delivers the verification link email.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, token string, ttl time.Duration) error
}
