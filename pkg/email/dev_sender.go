package email

import (
	"context"
	"log/slog"
)

// DevSender implements EmailSender for local development by logging messages
// instead of delivering them.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a development email sender.
func NewDevSender(log *slog.Logger) EmailSender {
	return &DevSender{log: log}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	d.log.InfoContext(ctx, "dev email sender: message suppressed",
		"send_to", params.SendTo,
		"subject", params.Subject,
		"tag", params.Tag,
	)
	return nil
}
