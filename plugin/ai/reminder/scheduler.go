package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// SchedulerConfig holds configuration for the delay scheduler.
type SchedulerConfig struct {
	MaxRetries    int           // Delivery attempts per reminder
	RetryDelay    time.Duration // Fixed backoff between attempts
	SendTimeout   time.Duration // Bound on a single delivery attempt
	MaxConcurrent int64         // Concurrent deliveries
}

// DefaultSchedulerConfig returns the default scheduler configuration:
// 3 attempts, 60s fixed backoff.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxRetries:    3,
		RetryDelay:    time.Minute,
		SendTimeout:   30 * time.Second,
		MaxConcurrent: 8,
	}
}

// DelayScheduler delivers reminders after a delay through a Sender, with
// bounded retries and bounded delivery concurrency.
type DelayScheduler struct {
	sender  Sender
	config  SchedulerConfig
	sem     *semaphore.Weighted
	logger  *slog.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewDelayScheduler creates a scheduler delivering through sender.
func NewDelayScheduler(sender Sender, config SchedulerConfig) *DelayScheduler {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 30 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 8
	}

	return &DelayScheduler{
		sender: sender,
		config: config,
		sem:    semaphore.NewWeighted(config.MaxConcurrent),
		logger: slog.Default(),
		stopCh: make(chan struct{}),
	}
}

// SetLogger sets a custom logger.
func (s *DelayScheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Schedule queues content for delivery to recipient after delay.
// A non-positive delay delivers immediately. Calls after Stop are dropped.
func (s *DelayScheduler) Schedule(delay time.Duration, recipient string, content string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Warn("scheduler stopped, dropping reminder", "recipient", recipient)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("reminder scheduled",
		"channel", s.sender.Name(),
		"recipient", recipient,
		"delay", delay)

	go func() {
		defer s.wg.Done()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-s.stopCh:
				s.logger.Warn("scheduler stopping, dropping pending reminder", "recipient", recipient)
				return
			}
		}

		s.deliver(recipient, content)
	}()
}

// Stop prevents new reminders and waits for in-flight deliveries. Reminders
// still waiting on their delay are dropped.
func (s *DelayScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("reminder scheduler stopped")
}

// deliver attempts delivery with fixed-backoff retries.
func (s *DelayScheduler) deliver(recipient string, content string) {
	// Delivery is intentionally detached from any request context: once a
	// reminder is due it should complete even if the originating request is
	// long gone.
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.SendTimeout)
		err := s.sender.Send(ctx, recipient, content)
		cancel()

		if err == nil {
			s.logger.Info("reminder delivered",
				"channel", s.sender.Name(),
				"recipient", recipient,
				"attempt", attempt)
			return
		}
		lastErr = err
		s.logger.Warn("reminder delivery failed",
			"channel", s.sender.Name(),
			"recipient", recipient,
			"attempt", attempt,
			"error", err)

		if attempt < s.config.MaxRetries && s.config.RetryDelay > 0 {
			timer := time.NewTimer(s.config.RetryDelay)
			select {
			case <-timer.C:
			case <-s.stopCh:
				timer.Stop()
				return
			}
			timer.Stop()
		}
	}

	s.logger.Error("reminder dropped after retries",
		"channel", s.sender.Name(),
		"recipient", recipient,
		"attempts", s.config.MaxRetries,
		"error", lastErr)
}
