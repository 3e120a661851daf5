package invoker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastInvoker() *Invoker {
	return New(Config{
		MaxAttempts:  3,
		BaseDelay:    time.Millisecond,
		PollInterval: time.Millisecond,
		MaxPolls:     5,
	}, nil)
}

func TestInvoke_RetriesTransientFailures(t *testing.T) {
	inv := fastInvoker()

	calls := 0
	err := inv.Invoke(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("upstream flake: %w", ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestInvoke_StopsAtMaxAttempts(t *testing.T) {
	inv := fastInvoker()

	calls := 0
	err := inv.Invoke(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return ErrRateLimited
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("final error should wrap the cause: %v", err)
	}
}

func TestInvoke_NonRetryableFailsImmediately(t *testing.T) {
	inv := fastInvoker()

	calls := 0
	err := inv.Invoke(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return fmt.Errorf("bad payload: %w", ErrRejected)
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Fatalf("non-retryable error should not be retried: %d attempts", calls)
	}
}

func TestPoll_CompletesWhenDone(t *testing.T) {
	inv := fastInvoker()

	polls := 0
	err := inv.Poll(context.Background(), "test.poll", func(ctx context.Context) (bool, error) {
		polls++
		return polls == 3, nil
	})
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if polls != 3 {
		t.Fatalf("expected 3 polls, got %d", polls)
	}
}

func TestPoll_TimesOutAtCeiling(t *testing.T) {
	inv := fastInvoker()

	err := inv.Poll(context.Background(), "test.poll", func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestPoll_TerminalFailurePropagates(t *testing.T) {
	inv := fastInvoker()

	want := fmt.Errorf("transcript errored: %w", ErrRejected)
	polls := 0
	err := inv.Poll(context.Background(), "test.poll", func(ctx context.Context) (bool, error) {
		polls++
		return true, want
	})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if polls != 1 {
		t.Fatalf("terminal failure should stop polling: %d polls", polls)
	}
}

func TestPoll_TransientErrorsKeepPolling(t *testing.T) {
	inv := fastInvoker()

	polls := 0
	err := inv.Poll(context.Background(), "test.poll", func(ctx context.Context) (bool, error) {
		polls++
		if polls < 3 {
			return false, fmt.Errorf("status fetch flake: %w", ErrUnavailable)
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if polls != 3 {
		t.Fatalf("expected 3 polls, got %d", polls)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{200, nil},
		{399, nil},
		{429, ErrRateLimited},
		{500, ErrUnavailable},
		{503, ErrUnavailable},
		{400, ErrRejected},
		{401, ErrRejected},
		{404, ErrRejected},
	}
	for _, tc := range cases {
		got := ClassifyHTTPStatus(tc.status)
		if tc.want == nil {
			if got != nil {
				t.Fatalf("status %d: expected nil, got %v", tc.status, got)
			}
			continue
		}
		if !errors.Is(got, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := 2 * time.Second
	if d := CalculateBackoff(1, base); d != 2*time.Second {
		t.Fatalf("attempt 1: %v", d)
	}
	if d := CalculateBackoff(3, base); d != 8*time.Second {
		t.Fatalf("attempt 3: %v", d)
	}
	if d := CalculateBackoff(10, base); d != 60*time.Second {
		t.Fatalf("attempt 10 should cap at 60s: %v", d)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrRateLimited) || !IsRetryable(ErrUnavailable) {
		t.Fatal("rate limit and unavailability are retryable")
	}
	if IsRetryable(ErrRejected) || IsRetryable(ErrTimeout) {
		t.Fatal("rejection and poll timeout are not retryable")
	}
}
