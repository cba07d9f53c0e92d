package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned when work is submitted to a queue that is not running.
var ErrQueueClosed = errors.New("jobs: queue is not running")

// ErrQueueFull is returned when the buffer has no room left.
var ErrQueueFull = errors.New("jobs: queue is full")

// Task wraps a payload with its delivery bookkeeping.
type Task[T any] struct {
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a single payload.
type Handler[T any] func(context.Context, T) error

// Config tunes the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff step; each further attempt doubles it.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue runs a handler over payloads on a fixed pool of goroutines.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     Config
	logger  *zap.Logger

	tasks   chan Task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	// pending counts submitted payloads that have not succeeded or been dropped.
	pending sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New builds a queue. Call Start before submitting work.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		tasks:   make(chan Task[T], cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new work and waits for pending payloads, retries included.
// Whatever is still pending when ctx expires is abandoned.
func (q *Queue[T]) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		q.logger.Warn("queue stopped before draining")
	}
	q.cancel()
	q.workers.Wait()
	q.logger.Info("queue stopped")
}

// Submit places a payload on the queue without blocking.
func (q *Queue[T]) Submit(payload T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	}

	q.pending.Add(1)
	select {
	case q.tasks <- Task[T]{Payload: payload, Enqueued: time.Now().UTC()}:
		return nil
	default:
		q.pending.Done()
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

func (q *Queue[T]) work() {
	defer q.workers.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler(q.ctx, task.Payload); err != nil {
				q.retry(task, err)
				continue
			}
			q.pending.Done()
		}
	}
}

func (q *Queue[T]) retry(task Task[T], err error) {
	if task.Attempt >= q.cfg.MaxRetries {
		q.logger.Error("task dropped after retries", zap.Int("attempts", task.Attempt+1), zap.Error(err))
		q.pending.Done()
		return
	}
	task.Attempt++
	delay := q.cfg.RetryDelay << (task.Attempt - 1)
	q.logger.Warn("task failed, retrying", zap.Int("attempt", task.Attempt), zap.Duration("delay", delay), zap.Error(err))

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.logger.Warn("retry abandoned on shutdown", zap.Int("attempt", task.Attempt))
			q.pending.Done()
		case <-timer.C:
			select {
			case q.tasks <- task:
			default:
				q.logger.Error("failed to requeue task", zap.Error(ErrQueueFull))
				q.pending.Done()
			}
		}
	}()
}
