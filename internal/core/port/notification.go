package port

import "context"

// NotificationKind selects the downstream template for a notification.
type NotificationKind string

const (
	NotificationPasswordReset NotificationKind = "password-reset"
	NotificationVerifyEmail   NotificationKind = "verify-email"
)

// Notification carries everything the downstream mailer needs to deliver a
// message. Context values are template variables, never logged verbatim.
type Notification struct {
	Recipient string
	Kind      NotificationKind
	Context   map[string]string
}

// NotificationSender hands a notification to the delivery pipeline. The core
// never sends email directly.
type NotificationSender interface {
	Send(ctx context.Context, notification Notification) error
}
