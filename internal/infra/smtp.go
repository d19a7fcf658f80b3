package infra

import (
	"fmt"
	"net/smtp"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending price lists as attachments.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// SendPriceList mails a generated price-list file.
func (m *Mailer) SendPriceList(to, subject, body, filePath string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: SMTP_HOST not configured")
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if filePath != "" {
		if _, err := e.AttachFile(filePath); err != nil {
			return fmt.Errorf("mailer: attach price list: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
