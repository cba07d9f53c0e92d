package mail

import (
	"context"
	"time"

	"github.com/noah-isme/swiaape-api/pkg/jobs"
)

// QueuedSender hands messages to a background worker pool so callers do not
// wait on the provider. Failed deliveries are retried with backoff.
type QueuedSender struct {
	queue *jobs.Queue[Message]
}

// NewQueuedSender wraps next. sendTimeout bounds each delivery attempt.
func NewQueuedSender(next Sender, sendTimeout time.Duration, cfg jobs.Config) *QueuedSender {
	deliver := func(ctx context.Context, msg Message) error {
		if sendTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, sendTimeout)
			defer cancel()
		}
		return next.Send(ctx, msg)
	}
	return &QueuedSender{queue: jobs.New("mail", deliver, cfg)}
}

// Start launches the delivery workers.
func (s *QueuedSender) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop flushes pending deliveries until ctx expires.
func (s *QueuedSender) Stop(ctx context.Context) { s.queue.Stop(ctx) }

// Send validates msg and queues it. A nil error means accepted, not delivered.
func (s *QueuedSender) Send(_ context.Context, msg Message) error {
	if msg.To.Address == "" {
		return ErrNoRecipient
	}
	return s.queue.Submit(msg)
}
