package gateway

import (
	"context"
	"log"
)

// Email templates the service sends. Rendering happens provider-side; the
// core only picks the template and supplies the data.
const (
	EmailOrderConfirmation    = "order_confirmation"
	EmailStatusUpdate         = "order_status_update"
	EmailInstallationComplete = "installation_complete"
	EmailAdminNewOrder        = "admin_new_order"
)

// Email is one templated message.
type Email struct {
	To       string
	Template string
	Data     map[string]string
}

// EmailSender is the fire-and-forget mail boundary. Failures are logged by
// callers, never surfaced to the end user.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// LogEmailSender writes would-be sends to the log. Used when no mail
// provider is configured.
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, msg Email) error {
	log.Printf("email (log only): to=%s template=%s data=%v", msg.To, msg.Template, msg.Data)
	return nil
}
