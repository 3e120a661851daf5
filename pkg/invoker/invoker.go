package invoker

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Gateway failure classes. Providers are both flaky (rate limits, transient
// 5xx) and asynchronous (submit returns a ticket, completion is out-of-band),
// so every external call goes through Invoke and async ones through Poll.
var (
	ErrRateLimited = errors.New("provider rate limited")
	ErrUnavailable = errors.New("provider unavailable")
	ErrRejected    = errors.New("provider rejected request")
	ErrTimeout     = errors.New("provider polling ceiling reached")
)

// Config controls the retry and poll schedules.
type Config struct {
	MaxAttempts  int           // Total call attempts, including the first
	BaseDelay    time.Duration // First retry delay; doubles each attempt
	PollInterval time.Duration // Fixed interval between status polls
	MaxPolls     int           // Poll-attempt ceiling before ErrTimeout
}

// DefaultConfig matches the retry discipline used against AssemblyAI.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseDelay:    2 * time.Second,
		PollInterval: 3 * time.Second,
		MaxPolls:     100,
	}
}

// Invoker wraps external gateway calls with bounded retry, exponential
// backoff and asynchronous completion polling.
type Invoker struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an Invoker.
func New(cfg Config, logger *zap.Logger) *Invoker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return &Invoker{cfg: cfg, logger: logger}
}

// Invoke runs op with bounded retry. Retryable failures (rate limits,
// 5xx-class) back off exponentially up to MaxAttempts; non-retryable
// failures (validation, auth) propagate immediately.
func (i *Invoker) Invoke(ctx context.Context, name string, op func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = i.cfg.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // Bounded by attempt count, not wall clock

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if attempt >= i.cfg.MaxAttempts {
			return backoff.Permanent(fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err))
		}

		if i.logger != nil {
			i.logger.Warn("⚠️ Gateway call failed, retrying",
				zap.String("op", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", i.cfg.MaxAttempts),
				zap.Error(err),
			)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

// PollFunc checks an asynchronous job once. done=true means the job reached
// a terminal state; a non-nil err with done=false is treated as transient
// unless it is non-retryable.
type PollFunc func(ctx context.Context) (done bool, err error)

// Poll checks fn on a fixed interval until it reports done, fails
// permanently, or the poll ceiling is hit (ErrTimeout).
func (i *Invoker) Poll(ctx context.Context, name string, fn PollFunc) error {
	ticker := time.NewTicker(i.cfg.PollInterval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		done, err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return err
		}
		if done {
			return err
		}
		if n >= i.cfg.MaxPolls {
			return fmt.Errorf("%s: %w", name, ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// CalculateBackoff returns the delay before the given retry attempt
// (base_delay × 2^(attempt-1), capped at 60s). Exposed for callers that
// schedule their own retries.
func CalculateBackoff(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(1<<uint(attempt-1)) * baseDelay

	maxDelay := 60 * time.Second
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
