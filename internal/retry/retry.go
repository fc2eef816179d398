package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kari/internal/logging"
	"kari/internal/services"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
)

// Policy controls how many times an operation runs and how long to wait
// between attempts. The delay is fixed: no jitter, no growth.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Logger receives one warning per failed attempt.
	Logger *slog.Logger
	// Name labels log lines and the final error, e.g. "recognize".
	Name string
}

// DefaultPolicy returns three attempts with a two second backoff.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: defaultMaxAttempts, Backoff: defaultBackoff}
}

// WithLogger returns a copy of the policy that logs through logger.
func (p Policy) WithLogger(logger *slog.Logger) Policy {
	p.Logger = logger
	return p
}

// Named returns a copy of the policy labelled with name.
func (p Policy) Named(name string) Policy {
	p.Name = name
	return p
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Invoke runs op until it succeeds or the policy's attempts are exhausted.
// Cancellation of ctx during a backoff wait aborts immediately with ctx.Err().
func Invoke[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.attempts()
	name := policy.Name
	if name == "" {
		name = "call"
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(policy.Logger, "retry"))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		logging.WarnWithContext(logger, "external call failed",
			"retry_attempt",
			logging.String("operation", name),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access and service availability"),
		)

		if attempt == attempts {
			break
		}
		if err := policy.sleep(ctx); err != nil {
			return zero, err
		}
	}

	return zero, services.Wrap(
		services.ErrExternalService,
		name,
		"invoke",
		fmt.Sprintf("failed after %d attempts", attempts),
		lastErr,
	)
}

func (p Policy) sleep(ctx context.Context) error {
	if p.Backoff <= 0 {
		return ctx.Err()
	}
	if p.Sleep != nil {
		if err := p.Sleep(ctx, p.Backoff); err != nil {
			return err
		}
		return ctx.Err()
	}
	timer := time.NewTimer(p.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
