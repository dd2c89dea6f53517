package utils

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cppla/blogicum/config"
)

const (
	smtpDialTimeout    = 5 * time.Second
	smtpSessionTimeout = 15 * time.Second
)

// ErrSMTPNotConfigured is returned when no SMTP host or sender is set.
var ErrSMTPNotConfigured = errors.New("smtp not configured")

// SendMail delivers a plain text email through the configured SMTP server.
// The whole session ends at the earlier of ctx's deadline and smtpSessionTimeout,
// and cancelling ctx aborts it.
func SendMail(ctx context.Context, to, subject, body string) error {
	cfg := config.Get()
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return ErrSMTPNotConfigured
	}
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))

	dialer := net.Dialer{Timeout: smtpDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	deadline := time.Now().Add(smtpSessionTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if cfg.SMTPTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: cfg.SMTPHost}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if cfg.SMTPUsername != "" {
		auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(cfg.SMTPFrom); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = "Blogicum"
	}
	if _, err := wc.Write(buildMessage(fromName, cfg.SMTPFrom, to, subject, body)); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// buildMessage renders headers in a fixed order followed by the body.
func buildMessage(fromName, from, to, subject, body string) []byte {
	var msg strings.Builder
	header := func(k, v string) { fmt.Fprintf(&msg, "%s: %s\r\n", k, v) }
	header("From", fmt.Sprintf("%s <%s>", encodeHeader(fromName), from))
	header("To", to)
	header("Subject", encodeHeader(subject))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}

// encodeHeader applies RFC 2047 encoding to non-ASCII header values.
func encodeHeader(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 128 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
