package email

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/configs"
	"github.com/kugather/signup-verification/internal/core/ports"
)

// NewMailSender builds the transport selected by MAIL_DRIVER, throttled to the
// configured rate. The returned close func releases transport resources.
func NewMailSender(cfg *configs.MailConfig, logger *logrus.Logger) (ports.MailSender, func() error, error) {
	var (
		sender  ports.MailSender
		closeFn = func() error { return nil }
	)

	switch cfg.Driver {
	case "sendgrid":
		sender = NewSendGridSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName, logger)
	case "smtp":
		s, err := NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			TLS:      cfg.SMTP.TLS,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.FromEmail,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		sender = s
	case "kafka":
		k := NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sender, closeFn = k, k.Close
	case "log":
		sender = NewLogSender(logger)
	default:
		return nil, nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}

	return NewThrottledSender(sender, cfg.RatePerSecond, cfg.Burst), closeFn, nil
}
