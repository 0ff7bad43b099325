package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without calling fn while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type Config struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes in half-open before closing
	Timeout          time.Duration // open duration before a trial request
}

// DefaultConfig suits live-call vendors: give up quickly, retry after a short pause.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          20 * time.Second,
	}
}

type Stats struct {
	State    string    `json:"state"`
	Failures int       `json:"failures"`
	LastFail time.Time `json:"last_fail"`
}

type CircuitBreaker struct {
	config    Config
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	trial     bool
	openedAt  time.Time
	lastFail  time.Time
	now       func() time.Time
}

func New(config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute runs fn unless the breaker is open. In half-open state only one
// trial call is admitted at a time. Context cancellation by the caller is not
// counted as a vendor failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		cb.release()
		return err
	}
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.state = StateHalfOpen
		cb.successes = 0
	}

	switch cb.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if cb.trial {
			return ErrOpen
		}
		cb.trial = true
	}
	return nil
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	cb.trial = false
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.trial = false

	if err != nil {
		cb.failures++
		cb.lastFail = cb.now()
		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.lastFail
		}
		return
	}

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
		}
	}
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{State: cb.state.String(), Failures: cb.failures, LastFail: cb.lastFail}
}
