package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/shoyaib4265a/st-shop-poss/internal/config"
)

// Mailer wraps SMTP configuration for out-of-band delivery of approval
// codes. The code has to leave the untrusted device somehow; mailing the
// admin inbox is the automated path, reading it off the screen the manual one.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.ApprovalMailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     from,
	}
}

// SendApprovalCode mails one pending-approval code to the admin inbox.
func (m *Mailer) SendApprovalCode(to, phone, device, code string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Device approval requested for %s", phone)
	e.Text = []byte(fmt.Sprintf(
		"Account %s is trying to log in from a new device (%s).\n\n"+
			"Approval code: %s\n\n"+
			"Enter this code in the admin view to trust the device.\n", phone, device, code))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send approval code: %w", err)
	}
	return nil
}
