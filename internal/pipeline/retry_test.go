package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/harishmarimuthu13022003/finance-agent/internal/config"
)

func testRuntime(budget int) *Runtime {
	return &Runtime{
		Config: config.PipelineConfig{
			RetryBudget:  budget,
			RetryBackoff: "1ms",
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	rt := testRuntime(2)

	calls := 0
	attempts, err := rt.withRetry(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry error: %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 and 1", attempts, calls)
	}
}

func TestWithRetryRecoversFromTransient(t *testing.T) {
	rt := testRuntime(2)

	calls := 0
	attempts, err := rt.withRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("flaky"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	rt := testRuntime(2)

	calls := 0
	cause := errors.New("still down")
	attempts, err := rt.withRetry(context.Background(), func(context.Context) error {
		calls++
		return Transient(cause)
	})
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want cause", err)
	}
	// budget counts extra attempts beyond the first
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3 and 3", attempts, calls)
	}
}

func TestWithRetryPermanentShortCircuits(t *testing.T) {
	rt := testRuntime(5)

	calls := 0
	attempts, err := rt.withRetry(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errors.New("bad request"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 and 1", attempts, calls)
	}
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	rt := testRuntime(5)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := rt.withRetry(ctx, func(context.Context) error {
		calls++
		cancel()
		return Transient(errors.New("flaky"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
