// Package notify hands completed donations and newsletter signups to the
// marketing system through the background task queue.
package notify

import (
	"context"
	"log/slog"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// Handler names, shared with the worker that drains the queue.
const (
	HandlerTransactionCompleted = "marketing.transaction_completed"
	HandlerNewsletterSignup     = "marketing.newsletter_signup"
)

// Dispatcher enqueues marketing notifications. Enqueue failures are logged
// and swallowed: the donor has already been charged, so a broken queue must
// not turn a successful donation into an error page.
type Dispatcher struct {
	queue  domain.TaskQueue
	logger *slog.Logger
}

func NewDispatcher(queue domain.TaskQueue, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  queue,
		logger: logger.With("component", "notify"),
	}
}

// TransactionCompleted queues the frozen donation record for the marketing
// system.
func (d *Dispatcher) TransactionCompleted(ctx context.Context, details *domain.CompletedTransactionDetails) {
	if details == nil {
		return
	}
	if err := d.queue.Enqueue(ctx, HandlerTransactionCompleted, details); err != nil {
		d.logger.Error("failed to enqueue transaction notification",
			"transaction_id", details.TransactionID,
			"error", err,
		)
	}
}

// NewsletterSignup queues a newsletter opt-in.
func (d *Dispatcher) NewsletterSignup(ctx context.Context, signup *domain.NewsletterSignup) {
	if signup == nil {
		return
	}
	if err := d.queue.Enqueue(ctx, HandlerNewsletterSignup, signup); err != nil {
		d.logger.Error("failed to enqueue newsletter signup",
			"email", signup.Email,
			"error", err,
		)
	}
}
