package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cb := New(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: 10 * time.Second})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	called := false
	if err := cb.Execute(ctx, func() error { called = true; return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if called {
		t.Fatal("fn must not run while open")
	}

	now = now.Add(11 * time.Second)
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed", cb.GetState())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cb := New(Config{FailureThreshold: 1, Timeout: time.Second})
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errors.New("x") })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(ctx, func() error { return errors.New("still down") })

	if got := cb.GetStats().State; got != "open" {
		t.Errorf("state = %s, want open", got)
	}
}

func TestCircuitBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = cb.Execute(ctx, func() error { return ctx.Err() })
	if cb.GetState() != StateClosed {
		t.Errorf("cancellation opened the breaker")
	}
}
