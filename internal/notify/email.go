package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v3"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/staffboard/staffboard/internal/metrics"
	"github.com/staffboard/staffboard/internal/platform/retry"
)

// ResendSender implements domain.EmailSender on the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	policy retry.Policy
}

var _ domain.EmailSender = (*ResendSender)(nil)

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			RateLimitBackoff: 5 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Retrying notification email", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

// Send delivers one notification email, retrying transient failures.
func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Staffboard <%s>", s.from),
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	err := retry.DoVoid(ctx, s.policy, classifySendError, func() error {
		_, err := s.client.Emails.SendWithContext(ctx, params)
		return err
	})
	if err != nil {
		metrics.NotificationEmailsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	metrics.NotificationEmailsSent.WithLabelValues("success").Inc()
	return nil
}

// Resend's client does not expose typed errors, so treat everything as
// transient and let the attempt budget bound the damage.
func classifySendError(error) retry.Action {
	return retry.Retry
}
