package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kari/internal/retry"
	"kari/internal/services"
)

func recordingPolicy(attempts int, backoff time.Duration, slept *[]time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		Backoff:     backoff,
		Sleep: func(_ context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return nil
		},
	}
}

func TestDefaultPolicy(t *testing.T) {
	policy := retry.DefaultPolicy()
	if policy.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", policy.MaxAttempts)
	}
	if policy.Backoff != 2*time.Second {
		t.Fatalf("expected 2s backoff, got %s", policy.Backoff)
	}
}

func TestInvokeSucceedsAfterTransientFailures(t *testing.T) {
	var slept []time.Duration
	calls := 0
	got, err := retry.Invoke(context.Background(), recordingPolicy(3, 2*time.Second, &slept), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "kari", nil
	})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if got != "kari" {
		t.Fatalf("unexpected result %q", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 2*time.Second {
		t.Fatalf("expected two fixed 2s waits, got %v", slept)
	}
}

func TestInvokeWrapsFinalFailure(t *testing.T) {
	var slept []time.Duration
	cause := errors.New("503 from space")
	calls := 0
	_, err := retry.Invoke(context.Background(), recordingPolicy(3, time.Second, &slept).Named("translate"), func(context.Context) (int, error) {
		calls++
		return 0, cause
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("expected no wait after the last attempt, got %v", slept)
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected original cause in chain, got %v", err)
	}
}

func TestInvokeSingleAttemptDoesNotSleep(t *testing.T) {
	var slept []time.Duration
	_, err := retry.Invoke(context.Background(), recordingPolicy(0, time.Second, &slept), func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(slept) != 0 {
		t.Fatalf("expected no waits, got %v", slept)
	}
}

func TestInvokeStopsOnCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retry.Policy{
		MaxAttempts: 3,
		Backoff:     time.Hour,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}
	calls := 0
	_, err := retry.Invoke(ctx, policy, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call before cancellation, got %d", calls)
	}
}

func TestInvokeDefaultSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := retry.Invoke(ctx, retry.Policy{MaxAttempts: 2, Backoff: time.Minute}, func(context.Context) (int, error) {
		return 0, errors.New("unreachable")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("expected backoff wait to end with the context")
	}
}
