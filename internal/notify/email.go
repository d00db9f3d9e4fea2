package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// EmailConfig holds SMTP settings for the email provider.
type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailProvider sends notifications over SMTP.
type EmailProvider struct {
	cfg      EmailConfig
	sendMail sendMailFunc
}

// NewEmail creates a new SMTP notification provider. Port defaults to 587.
func NewEmail(cfg EmailConfig) *EmailProvider {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailProvider{cfg: cfg, sendMail: smtp.SendMail}
}

func (e *EmailProvider) Name() string { return "email" }

// Send mails the notification to its recipients, falling back to the
// configured recipients when the notification names none.
func (e *EmailProvider) Send(ctx context.Context, n model.Notification) error {
	to := n.Recipients
	if len(to) == 0 {
		to = e.cfg.Recipients
	}
	if len(to) == 0 {
		return fmt.Errorf("email: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

	if err := e.sendMail(addr, auth, e.cfg.From, to, buildMessage(e.cfg.From, to, n)); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, n model.Notification) []byte {
	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", strings.ToUpper(string(n.Severity)), n.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", ts.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(n.Body)
	b.WriteString("\r\n")
	return b.Bytes()
}
