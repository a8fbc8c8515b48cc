package mail

import (
	"fmt"
	"net/smtp"

	"github.com/gtrack/backend/internal/config"
	"go.uber.org/zap"
)

// Sender delivers a single plain-text message. OTP delivery treats a
// returned error as fatal to the request; invite mail is best-effort.
type Sender interface {
	Send(to, subject, body string) error
}

// NoopSender is used when SMTP is disabled (local development).
type NoopSender struct {
	Logger *zap.Logger
}

func (s NoopSender) Send(to, subject, body string) error {
	if s.Logger != nil {
		s.Logger.Info("mail disabled, dropping message",
			zap.String("to", to),
			zap.String("subject", subject))
	}
	return nil
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	addr := s.cfg.Host + ":" + s.cfg.Port

	msg := "From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		s.logger.Warn("smtp send failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
var _ Sender = NoopSender{}
