package smtp

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/oli-store-api/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
	SendPasswordResetOTP(to, code string) bool
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// SendPasswordResetOTP renders and sends the password-reset OTP mail.
// Like the SMS senders it reports delivery as a bool — the code stays usable
// whether or not this mail arrives.
func (m *mailer) SendPasswordResetOTP(to, code string) bool {
	body := fmt.Sprintf(
		"Dear Customer,\n\n"+
			"%s is your OTP for password reset.\n\n"+
			"OTPs are SECRET. Do not disclose it to anyone.\n\n"+
			"If you did not request this password reset, please ignore this email.\n\n"+
			"Best regards,\nOLI Team",
		code)
	if err := m.SendEmail(to, "Password Reset - OLI", body); err != nil {
		slog.Warn("smtp: send otp mail failed", "err", err)
		return false
	}
	return true
}
