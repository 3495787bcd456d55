package email

import (
	"fmt"
	"net/smtp"

	"github.com/cohenoa33/cashflow/internal/config"
	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// Sender sends transactional mail via SMTP
type Sender struct {
	cfg         config.SMTPConfig
	frontendURL string
}

// NewSender creates a new email sender
func NewSender(cfg config.SMTPConfig, frontendURL string) *Sender {
	return &Sender{cfg: cfg, frontendURL: frontendURL}
}

// SendPasswordReset mails a reset link carrying the given token.
// The link expires after 15 minutes on the server side.
func (s *Sender) SendPasswordReset(to, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Reset Your Cashflow Password"
	e.Text = []byte(fmt.Sprintf(
		"Reset Your Password\n\n"+
			"You requested to reset your password for your Cashflow account.\n\n"+
			"Click this link to create a new password:\n%s\n\n"+
			"This link will expire in 15 minutes.\n\n"+
			"If you didn't request a password reset, you can safely ignore this email.\n",
		resetLink,
	))
	e.HTML = []byte(fmt.Sprintf(
		`<h2>Reset Your Password</h2>`+
			`<p>You requested to reset your password for your Cashflow account.</p>`+
			`<p><a href="%s">Reset Password</a></p>`+
			`<p>Or copy and paste this link into your browser:</p>`+
			`<p>%s</p>`+
			`<p>This link will expire in 15 minutes.</p>`+
			`<p>If you didn't request a password reset, you can safely ignore this email.</p>`,
		resetLink, resetLink,
	))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	log.Info().Str("to", to).Msg("Password reset email sent")
	return nil
}
