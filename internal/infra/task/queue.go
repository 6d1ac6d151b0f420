package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("operation queue is full")
	ErrQueueStopped = errors.New("operation queue is stopped")
)

// Operation is a unit of work executed by the queue.
// ctx is cancelled when the queue stops; operations should return promptly after that.
type Operation func(ctx context.Context)

// Config contains queue configuration.
type Config struct {
	Name          string `json:"name" yaml:"name"`
	MaxConcurrent int    `json:"max_concurrent" yaml:"max_concurrent"`
	Capacity      int    `json:"capacity" yaml:"capacity"`
}

// DefaultConfig returns a serial queue configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:          "operations",
		MaxConcurrent: 1,
		Capacity:      256,
	}
}

// Queue runs submitted operations in FIFO order on a fixed set of workers.
// With MaxConcurrent set to 1 operations never overlap.
type Queue struct {
	mu      sync.Mutex
	stopped bool

	ops     chan Operation
	pending atomic.Int64
	logger  *zap.Logger
	config  *Config

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue and starts its workers.
func NewQueue(logger *zap.Logger, config *Config) *Queue {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	if config.Capacity <= 0 {
		config.Capacity = DefaultConfig().Capacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		ops:    make(chan Operation, config.Capacity),
		logger: logger.Named("queue").With(zap.String("queue", config.Name)),
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < config.MaxConcurrent; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	q.logger.Debug("operation queue started",
		zap.Int("max_concurrent", config.MaxConcurrent),
		zap.Int("capacity", config.Capacity))
	return q
}

// Submit enqueues an operation.
func (q *Queue) Submit(op Operation) error {
	if op == nil {
		return fmt.Errorf("submit: nil operation")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return ErrQueueStopped
	}

	select {
	case q.ops <- op:
		q.pending.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of operations submitted but not yet finished.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// Stop cancels running operations, drains the remaining ones with a cancelled
// context and waits for all workers to exit. It is safe to call more than once.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	close(q.ops)
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Debug("operation queue stopped")
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for op := range q.ops {
		q.run(op)
	}
}

func (q *Queue) run(op Operation) {
	defer q.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("operation panicked", zap.Any("panic", r))
		}
	}()

	op(q.ctx)
}
