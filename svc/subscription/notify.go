package subscription

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/email"
	"github.com/classloop/classloop/svc/auth"
)

// UserSource resolves the account behind a subscription so the dunning
// notice has somewhere to go. auth.Store satisfies it.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

// EmailNotifier sends the payment-failure notice. It satisfies Notifier.
type EmailNotifier struct {
	users     UserSource
	sender    email.EmailSender
	portalURL string
	log       *slog.Logger
}

// EmailNotifierOption configures optional notifier collaborators.
type EmailNotifierOption func(*EmailNotifier)

// WithNotifierLogger sets the logger. Defaults to slog.Default.
func WithNotifierLogger(log *slog.Logger) EmailNotifierOption {
	if log == nil {
		panic("subscription: logger cannot be nil")
	}
	return func(n *EmailNotifier) { n.log = log }
}

// NewEmailNotifier creates the payment-failure mailer. portalURL is where the
// email sends teachers to fix their payment method.
func NewEmailNotifier(users UserSource, sender email.EmailSender, portalURL string, opts ...EmailNotifierOption) *EmailNotifier {
	if users == nil {
		panic("subscription: user source cannot be nil")
	}
	if sender == nil {
		panic("subscription: email sender cannot be nil")
	}

	n := &EmailNotifier{
		users:     users,
		sender:    sender,
		portalURL: portalURL,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyPaymentFailure emails the subscription owner that a charge failed
// and their classrooms are in the grace period.
func (n *EmailNotifier) NotifyPaymentFailure(ctx context.Context, userID uuid.UUID) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve subscription owner: %w", err)
	}

	err = n.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   user.Email,
		Subject:  "Action needed: your ClassLoop payment failed",
		BodyHTML: paymentFailureBody(user.DisplayName, n.portalURL),
		Tag:      "payment-failed",
	})
	if err != nil {
		return fmt.Errorf("send payment failure notice: %w", err)
	}

	n.log.InfoContext(ctx, "payment failure notice sent",
		slog.String("user_id", userID.String()))
	return nil
}

func paymentFailureBody(name, portalURL string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>We could not process the latest payment for your ClassLoop subscription.
Your classrooms keep their seats for now, but access drops to the free
classroom size if the payment keeps failing.</p>
<p><a href="%s">Update your payment method</a> to keep everything running.</p>
<p>The ClassLoop team</p>`,
		html.EscapeString(name), html.EscapeString(portalURL))
}
