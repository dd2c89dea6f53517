package utils

import (
	"context"
	"fmt"
	"time"
)

// Notifier delivers a best-effort message to a user.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// MailNotifier sends notifications through the configured SMTP server.
type MailNotifier struct{}

// Notify implements Notifier.
func (MailNotifier) Notify(ctx context.Context, to, subject, body string) error {
	return SendMail(ctx, to, subject, body)
}

// NotifyAsync dispatches a notification without blocking the caller.
// Failures and panics are logged and dropped; nothing is retried.
func NotifyAsync(n Notifier, to, subject, body string) {
	if n == nil || to == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Sugar.Warnw("notification panicked", "to", to, "subject", subject, "panic", fmt.Sprint(r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.Notify(ctx, to, subject, body); err != nil {
			Sugar.Warnw("notification failed", "to", to, "subject", subject, "error", err)
		}
	}()
}
