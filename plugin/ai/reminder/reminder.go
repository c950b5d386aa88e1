// Package reminder dispatches deferred reminders to users. Callers hand over
// a delay, a recipient and the reminder content; delivery happens later with
// bounded retries, entirely outside the request path.
package reminder

import (
	"context"
	"time"
)

// Sender delivers one reminder through a concrete channel.
type Sender interface {
	// Name identifies the channel, e.g. "email".
	Name() string

	// Send delivers content to the recipient. Errors trigger the scheduler's
	// retry policy.
	Send(ctx context.Context, recipient string, content string) error
}

// Scheduler accepts deferred reminders. Implemented by *DelayScheduler;
// consumers depend on this interface so tests can capture schedule calls.
type Scheduler interface {
	// Schedule queues content for delivery to recipient after delay.
	// Fire-and-forget: delivery failures are retried and then logged, never
	// reported back.
	Schedule(delay time.Duration, recipient string, content string)
}
