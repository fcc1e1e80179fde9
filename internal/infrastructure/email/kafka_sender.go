package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
)

// MailEvent is published for an external mail service to deliver.
type MailEvent struct {
	Type      string    `json:"type"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	TextBody  string    `json:"text_body"`
	HTMLBody  string    `json:"html_body"`
	CreatedAt time.Time `json:"created_at"`
}

const mailEventTypeVerification = "signup.verification_email"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender hands mail to a mail service via a Kafka topic, keyed by recipient
// so messages for one address stay ordered on a partition.
type KafkaSender struct {
	writer messageWriter
	logger *logrus.Logger
}

func NewKafkaSender(brokers []string, topic string, logger *logrus.Logger) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ ports.MailSender = (*KafkaSender)(nil)

func (s *KafkaSender) Send(ctx context.Context, msg *ports.MailMessage) error {
	now := time.Now()
	value, err := json.Marshal(MailEvent{
		Type:      mailEventTypeVerification,
		To:        msg.To,
		Subject:   msg.Subject,
		TextBody:  msg.TextBody,
		HTMLBody:  msg.HTMLBody,
		CreatedAt: now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode mail event: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.To), Value: value, Time: now}); err != nil {
		if s.logger != nil {
			s.logger.WithField("to", msg.To).WithError(err).Error("Failed to publish mail event")
		}
		return fmt.Errorf("failed to publish mail event: %w", err)
	}
	if s.logger != nil {
		s.logger.WithField("to", msg.To).Info("Mail event published")
	}
	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
