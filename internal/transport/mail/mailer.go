package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional account mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) SendPasswordResetEmail(email, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your password reset code")

	body := fmt.Sprintf(`
        <h3>Password reset requested</h3>
        <p>Use the following code to reset your password: <strong>%s</strong></p>
        <p>The code expires in one hour. If you did not request this change, you can ignore this email.</p>
    `, code)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

func (m *Mailer) SendWelcomeEmail(email, name string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Welcome!")

	body := fmt.Sprintf(`
        <h3>Welcome, %s!</h3>
        <p>Your account has been created successfully.</p>
    `, name)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}
