package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
)

//go:embed templates/*
var templatesFS embed.FS

// VerificationPath is where the mailed link points, relative to the base URL.
const VerificationPath = "/verification/start"

// MailerConfig holds the branding and link settings of the verification mail.
type MailerConfig struct {
	CompanyName string
	BaseURL     string
}

// VerificationEmailData holds data for the verification templates
type VerificationEmailData struct {
	CompanyName     string
	Email           string
	VerificationURL string
	ExpiryStatement string
}

// VerificationMailer renders the verification email and hands it to a MailSender.
type VerificationMailer struct {
	config *MailerConfig
	sender ports.MailSender
	logger *logrus.Logger
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

// NewVerificationMailer parses the embedded templates.
func NewVerificationMailer(config *MailerConfig, sender ports.MailSender, logger *logrus.Logger) (*VerificationMailer, error) {
	html, err := htmltemplate.ParseFS(templatesFS, "templates/verification.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template verification.html: %w", err)
	}
	text, err := texttemplate.ParseFS(templatesFS, "templates/verification.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template verification.txt: %w", err)
	}
	return &VerificationMailer{config: config, sender: sender, logger: logger, html: html, text: text}, nil
}

var _ ports.VerificationMailer = (*VerificationMailer)(nil)

// Subject is fixed per deployment.
func (m *VerificationMailer) Subject() string {
	return fmt.Sprintf("Verify your email address - %s", m.config.CompanyName)
}

// VerificationURL builds {baseURL}/verification/start?token={token}.
func (m *VerificationMailer) VerificationURL(token string) string {
	return strings.TrimRight(m.config.BaseURL, "/") + VerificationPath + "?token=" + url.QueryEscape(token)
}

// ExpiryStatement renders the human-readable TTL sentence.
func ExpiryStatement(ttl time.Duration) string {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes == 1 {
		return "This link expires in 1 minute and can be used only once."
	}
	return fmt.Sprintf("This link expires in %d minutes and can be used only once.", minutes)
}

func (m *VerificationMailer) SendVerification(ctx context.Context, to, token string, ttl time.Duration) error {
	data := VerificationEmailData{
		CompanyName:     m.config.CompanyName,
		Email:           to,
		VerificationURL: m.VerificationURL(token),
		ExpiryStatement: ExpiryStatement(ttl),
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := m.html.Execute(&htmlBuf, data); err != nil {
		return fmt.Errorf("failed to render verification email template: %w", err)
	}
	if err := m.text.Execute(&textBuf, data); err != nil {
		return fmt.Errorf("failed to render verification email template: %w", err)
	}

	msg := &ports.MailMessage{
		To:       to,
		Subject:  m.Subject(),
		TextBody: textBuf.String(),
		HTMLBody: htmlBuf.String(),
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
