package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logrus.Logger
}

func NewSendGridSender(apiKey, fromEmail, fromName string, logger *logrus.Logger) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

var _ ports.MailSender = (*SendGridSender)(nil)

func (s *SendGridSender) Send(ctx context.Context, msg *ports.MailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, recipient, msg.TextBody, msg.HTMLBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).WithError(err).Error("Failed to send email")
		}
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 300 {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"to": msg.To, "status_code": response.StatusCode}).Error("SendGrid rejected email")
		}
		return fmt.Errorf("sendgrid rejected email: status %d", response.StatusCode)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"to":          msg.To,
			"subject":     msg.Subject,
			"status_code": response.StatusCode,
		}).Info("Email sent successfully")
	}
	return nil
}
