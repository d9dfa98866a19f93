package ports

import "context"

// Notification templates.
const (
	TemplateVerification  = "verification"
	TemplateEmailChange   = "email_change"
	TemplateEmailChanged  = "email_changed"
	TemplatePasswordReset = "password_reset"
)

// Notification is a single outbound message rendered from a named template.
type Notification struct {
	Template string
	To       string
	Data     map[string]any
}

// Notifier delivers notifications. Delivery is fire-and-forget: a nil error
// only means the transport accepted the message.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
