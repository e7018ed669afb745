package mail

import (
	"context"
	"fmt"

	"github.com/portal/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Message is one outbound email
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the configured mail provider
func NewMailer(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "brevo":
		return NewBrevoMailer(cfg), nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "noop":
		return NewNoopMailer(logger), nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}

// InviteEmail renders the onboarding invite message
func InviteEmail(to, inviterName, acceptURL string) Message {
	text := fmt.Sprintf(
		"%s has invited you to the client portal.\n\n"+
			"Open the link below to set up your account. The link expires in 7 days.\n\n%s\n",
		inviterName, acceptURL)

	html := fmt.Sprintf(
		`<p>%s has invited you to the client portal.</p>`+
			`<p><a href="%s">Set up your account</a> (the link expires in 7 days).</p>`,
		inviterName, acceptURL)

	return Message{
		To:       to,
		Subject:  "You have been invited to the client portal",
		TextBody: text,
		HTMLBody: html,
	}
}

// MagicLinkEmail renders the passwordless login message
func MagicLinkEmail(to, loginURL string) Message {
	text := fmt.Sprintf(
		"Use the link below to sign in to the client portal. "+
			"It works once and expires in 15 minutes.\n\n%s\n\n"+
			"If you did not request this, ignore this message.\n",
		loginURL)

	html := fmt.Sprintf(
		`<p><a href="%s">Sign in to the client portal</a></p>`+
			`<p>The link works once and expires in 15 minutes. If you did not request this, ignore this message.</p>`,
		loginURL)

	return Message{
		To:       to,
		Subject:  "Your sign-in link",
		TextBody: text,
		HTMLBody: html,
	}
}

// NoopMailer logs instead of sending. Default in development.
type NoopMailer struct {
	logger *zap.Logger
}

// NewNoopMailer creates a mailer that only logs
func NewNoopMailer(logger *zap.Logger) *NoopMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopMailer{logger: logger.Named("mail")}
}

// Send logs the message and drops it
func (m *NoopMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("Email suppressed (noop provider)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

var _ Mailer = (*NoopMailer)(nil)
