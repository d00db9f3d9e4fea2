package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// Notifier fans a notification out to every configured provider.
type Notifier struct {
	providers []Provider
	timeout   time.Duration
	now       func() time.Time
}

// NewNotifier creates a notifier over the given providers.
func NewNotifier(providers ...Provider) *Notifier {
	return &Notifier{
		providers: providers,
		timeout:   30 * time.Second,
		now:       time.Now,
	}
}

// Providers returns the names of the configured providers.
func (n *Notifier) Providers() []string {
	names := make([]string, len(n.providers))
	for i, p := range n.providers {
		names[i] = p.Name()
	}
	return names
}

// Send delivers a message through all providers. It is best-effort: each
// provider failure is logged as a NotificationFailure and Send reports
// whether at least one provider accepted the message.
func (n *Notifier) Send(ctx context.Context, severity model.Severity, subject, body string, recipients []string) bool {
	if len(n.providers) == 0 {
		slog.Debug("no notification providers configured", "subject", subject)
		return false
	}

	return n.deliver(ctx, model.Notification{
		Severity:   severity,
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
		Timestamp:  n.now(),
	})
}

// SendAlert is Send for an alert: severity and body come from the alert and
// the alert itself rides along for providers that serialise it.
func (n *Notifier) SendAlert(ctx context.Context, al model.Alert, subject string, recipients []string) bool {
	if len(n.providers) == 0 {
		slog.Debug("no notification providers configured", "subject", subject, "alert", al.ID)
		return false
	}
	return n.deliver(ctx, model.Notification{
		Severity:   al.Severity,
		Subject:    subject,
		Body:       al.Message,
		Recipients: recipients,
		Timestamp:  n.now(),
		Alert:      &al,
	})
}

func (n *Notifier) deliver(ctx context.Context, notif model.Notification) bool {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	delivered := false
	for _, p := range n.providers {
		if err := p.Send(ctx, notif); err != nil {
			slog.Error("sending notification", "error", &NotificationFailure{Provider: p.Name(), Err: err}, "subject", notif.Subject)
			continue
		}
		delivered = true
	}
	return delivered
}
