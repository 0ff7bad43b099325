package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/troikatech/call-router/pkg/logger"
	"github.com/troikatech/call-router/pkg/metrics"
)

var (
	ErrQueueFull = errors.New("turn queue is full")
	ErrClosed    = errors.New("runner is shut down")
)

type SubmitStatus string

const (
	StatusAccepted  SubmitStatus = "accepted"
	StatusDuplicate SubmitStatus = "duplicate"
	StatusDropped   SubmitStatus = "dropped"
)

// TurnRunner is what the Runner executes; *Orchestrator implements it.
type TurnRunner interface {
	RunTurn(ctx context.Context, req TurnRequest) (*Result, error)
}

// ResultHook is told about every finished turn.
type ResultHook func(req TurnRequest, res *Result, err error)

type RunnerConfig struct {
	Workers   int
	QueueSize int
	// ClaimTTL bounds how long a turn stays claimed.
	ClaimTTL time.Duration
}

// Runner executes turns on a fixed worker pool behind a bounded queue so the
// recording webhook can return immediately.
type Runner struct {
	turns  TurnRunner
	claims Claims
	cfg    RunnerConfig
	logger *zap.Logger

	group singleflight.Group
	queue chan TurnRequest
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	hooks  []ResultHook

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRunner(turns TurnRunner, claims Claims, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 10 * time.Minute
	}
	if claims == nil {
		claims = NewMemoryClaims()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		turns:  turns,
		claims: claims,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan TurnRequest, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnResult registers a hook. Call before Start.
func (r *Runner) OnResult(hook ResultHook) {
	r.mu.Lock()
	r.hooks = append(r.hooks, hook)
	r.mu.Unlock()
}

func (r *Runner) Start() {
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.logger.Info("Turn runner started", zap.Int("workers", r.cfg.Workers), zap.Int("queue_size", r.cfg.QueueSize))
}

// Submit claims and enqueues a turn without blocking. A turn already claimed
// here or on another instance is reported as a duplicate.
func (r *Runner) Submit(ctx context.Context, req TurnRequest) (SubmitStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return StatusDropped, ErrClosed
	}

	key := TurnKey(req.CallID, req.Turn)
	fields := logger.TurnFields(req.CallID, req.Turn)

	claimed, err := r.claims.Claim(ctx, key, r.cfg.ClaimTTL)
	if err != nil {
		// fail open; singleflight still covers this instance
		r.logger.Warn("Turn claim failed, running anyway", append(fields, zap.Error(err))...)
		claimed = true
	}
	if !claimed {
		metrics.RecordTurn("duplicate")
		r.logger.Info("Duplicate recording webhook ignored", fields...)
		return StatusDuplicate, nil
	}

	select {
	case r.queue <- req:
		return StatusAccepted, nil
	default:
		_ = r.claims.Release(ctx, key)
		metrics.RecordTurn("dropped")
		r.logger.Error("Turn queue full, dropping turn", fields...)
		return StatusDropped, ErrQueueFull
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for req := range r.queue {
		r.execute(req)
	}
}

func (r *Runner) execute(req TurnRequest) {
	key := TurnKey(req.CallID, req.Turn)

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.turns.RunTurn(r.ctx, req)
	})
	res, _ := v.(*Result)

	if err != nil {
		// let a redelivered webhook try again
		if relErr := r.claims.Release(context.Background(), key); relErr != nil {
			r.logger.Warn("Failed to release turn claim", append(logger.TurnFields(req.CallID, req.Turn), zap.Error(relErr))...)
		}
	}

	r.mu.RLock()
	hooks := r.hooks
	r.mu.RUnlock()
	for _, hook := range hooks {
		hook(req, res, err)
	}
}

// Shutdown stops intake and waits for queued turns. If ctx ends first,
// in-flight turns are cancelled.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
