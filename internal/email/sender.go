package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"podcastauth/internal/auth"
	"podcastauth/internal/config"
)

// Sender delivers account emails over SMTP. It satisfies auth.Notifier.
type Sender struct {
	cfg config.EmailConfig
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg}
}

var _ auth.Notifier = (*Sender)(nil)

func (s *Sender) SendVerification(ctx context.Context, to, link string) error {
	return s.send(ctx, to, VerificationEmail(link))
}

func (s *Sender) SendReset(ctx context.Context, to, link string) error {
	return s.send(ctx, to, PasswordResetEmail(link))
}

func (s *Sender) SendExternalSignInNotice(ctx context.Context, to string) error {
	return s.send(ctx, to, ExternalSignInNoticeEmail())
}

func (s *Sender) SendAdminNotice(ctx context.Context, newAccountEmail string) error {
	if s.cfg.AdminEmail == "" {
		return nil
	}
	registered := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	return s.send(ctx, s.cfg.AdminEmail, AdminNoticeEmail(newAccountEmail, registered))
}

func (s *Sender) send(_ context.Context, to string, content Content) error {
	if !s.cfg.Enabled() {
		return fmt.Errorf("email is not configured")
	}

	body := content.HTML
	if strings.TrimSpace(body) == "" {
		body = content.Text
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", content.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if s.cfg.Secure {
		tlsCfg := &tls.Config{
			ServerName: s.cfg.Host,
		}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if s.cfg.Username != "" {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return err
			}
		}

		if err := client.Mail(s.cfg.From); err != nil {
			return err
		}
		if err := client.Rcpt(to); err != nil {
			return err
		}

		w, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(msg.String())); err != nil {
			return err
		}
		return w.Close()
	}

	var smtpAuth smtp.Auth
	if s.cfg.Username != "" {
		smtpAuth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return smtp.SendMail(addr, smtpAuth, s.cfg.From, []string{to}, []byte(msg.String()))
}

// LogNotifier is the development notifier used when SMTP is not configured;
// it writes the would-be emails to the process log.
type LogNotifier struct{}

var _ auth.Notifier = LogNotifier{}

func (LogNotifier) SendVerification(_ context.Context, to, link string) error {
	log.Printf("email (verification) to=%s link=%s", to, link)
	return nil
}

func (LogNotifier) SendReset(_ context.Context, to, link string) error {
	log.Printf("email (password reset) to=%s link=%s", to, link)
	return nil
}

func (LogNotifier) SendExternalSignInNotice(_ context.Context, to string) error {
	log.Printf("email (external sign-in notice) to=%s", to)
	return nil
}

func (LogNotifier) SendAdminNotice(_ context.Context, newAccountEmail string) error {
	log.Printf("email (admin notice) new account=%s", newAccountEmail)
	return nil
}
