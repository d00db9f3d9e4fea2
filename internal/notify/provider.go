// Package notify delivers alert notifications through pluggable providers.
package notify

import (
	"context"
	"fmt"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// Provider sends notifications through a specific channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, n model.Notification) error
}

// NotificationFailure reports a provider that could not deliver a
// notification. It is logged and never returned to alerting callers.
type NotificationFailure struct {
	Provider string
	Err      error
}

func (e *NotificationFailure) Error() string {
	return fmt.Sprintf("notification via %s failed: %v", e.Provider, e.Err)
}

func (e *NotificationFailure) Unwrap() error { return e.Err }
