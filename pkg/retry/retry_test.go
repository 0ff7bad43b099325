package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		permanent bool
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{name: "succeeds first time", failures: 0, attempts: 3, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, attempts: 3, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, attempts: 3, wantCalls: 3, wantErr: true},
		{name: "permanent error stops", failures: 5, permanent: true, attempts: 3, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastConfig(tt.attempts), func() error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return Permanent(errors.New("bad request"))
					}
					return errors.New("temporary")
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, fastConfig(3), func() error { calls++; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
