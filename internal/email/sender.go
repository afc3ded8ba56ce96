package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Sender delivers verification codes to users.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// SMTPConfig configures the SMTP relay. Password carries the provider API key.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Dialer is the subset of gomail.Dialer used for delivery.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends mail through an SMTP relay using gomail.
type SMTPSender struct {
	from   string
	dialer Dialer
	logger *slog.Logger
}

// NewSender returns an SMTP sender, or a LogSender when no relay host is
// configured so that local development works without credentials.
func NewSender(cfg SMTPConfig, logger *slog.Logger) Sender {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set, verification codes will only be logged")
		return NewLogSender(logger)
	}
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// NewSMTPSender builds a sender over an explicit dialer.
func NewSMTPSender(from string, dialer Dialer, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{from: from, dialer: dialer, logger: logger}
}

// SendVerificationCode renders and sends the verification message.
func (s *SMTPSender) SendVerificationCode(ctx context.Context, to, code string) error {
	body, err := renderVerification(code)
	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	s.logger.InfoContext(ctx, "verification email sent", "to", to)
	return nil
}

// LogSender only logs the code. Used when SMTP is not configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes codes to the log.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendVerificationCode(ctx context.Context, to, code string) error {
	s.logger.WarnContext(ctx, "email delivery disabled, verification code not sent", "to", to, "code", code)
	return nil
}

const verificationSubject = "Verify Your Email - MakeItReel"

var verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #0f766e; text-align: center;">Verify Your Email</h2>
  <p>Thank you for signing up! Please use the verification code below to complete your registration:</p>
  <div style="background: #f0f9ff; padding: 20px; text-align: center; margin: 20px 0; border-radius: 8px;">
    <h1 style="color: #0f766e; font-size: 32px; margin: 0; letter-spacing: 8px;">{{.Code}}</h1>
  </div>
  <p style="color: #666;">This code will expire in {{.ExpiryMinutes}} minutes.</p>
  <p style="color: #666; font-size: 14px;">If you didn't request this verification, please ignore this email.</p>
</div>`))

func renderVerification(code string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		Code          string
		ExpiryMinutes int
	}{Code: code, ExpiryMinutes: 10})
	return buf.String(), err
}
