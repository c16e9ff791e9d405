// Package worker runs the pool that turns queued teams into stored
// composite metrics.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/miya/internal/adapters/mq/queue"
	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/pkg/logger"
	"github.com/okian/miya/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Computer computes one team's metrics.
type Computer interface {
	Compute(ctx context.Context, team string) (model.CompositeMetrics, error)
}

// Writer stores one team's metrics.
type Writer interface {
	Put(ctx context.Context, team string, m model.CompositeMetrics) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// ResultFunc observes the outcome of every job. err is nil on success.
type ResultFunc func(team string, err error)

// Worker processes jobs until the queue is drained.
type Worker interface {
	// Run starts the worker loop until the queue closes or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	computer Computer
	writer   Writer
	name     string
	onResult ResultFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, computer Computer, writer Writer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		computer: computer,
		writer:   writer,
		name:     "worker",
		onResult: func(string, error) {},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			err := w.process(ctx, job)
			w.onResult(job.Team, err)
		}
	}
}

// Shutdown stops the worker and waits for the current job to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process computes and stores one team. A failure leaves the team absent.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(job.EnqueuedAt).Milliseconds()))
	}()

	m, err := w.computer.Compute(ctx, job.Team)
	metrics.RecordMetricsLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		kind := failureKind(err)
		metrics.RecordTeamMetricsFailed(kind)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", kind)
		w.logger.Warn(ctx, "metrics unavailable for team", logger.Team(job.Team), logger.Error(err))
		return err
	}

	if err := w.writer.Put(ctx, job.Team, m); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "storing metrics failed", logger.Team(job.Team), logger.Error(err))
		return fmt.Errorf("store metrics for %s: %w", job.Team, err)
	}

	metrics.RecordTeamMetricsComputed()
	w.logger.Debug(ctx, "metrics computed",
		logger.Team(job.Team),
		logger.Float64("worth", m.Worth),
		logger.Float64("prime", m.Prime),
		logger.Float64("road", m.Road),
		logger.Float64("nerve", m.Nerve),
	)
	return nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, model.ErrGameLogNotFound):
		return "game_log_not_found"
	case errors.Is(err, model.ErrInvalidGame):
		return "invalid_game"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "compute_error"
	}
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	mu       sync.Mutex
	failures map[string]error
	computed int

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, q Queue, computer Computer, writer Writer, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		failures: make(map[string]error),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, computer, writer,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
			WithResultFunc(p.record),
		)
	}
	metrics.UpdateWorkerActiveCount(0)
	return p
}

func (p *Pool) record(team string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.failures[team] = err
		return
	}
	p.computed++
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Drain closes the queue and waits for the workers to finish every queued
// job. It returns ctx's error if the wait is cut short.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer metrics.UpdateWorkerActiveCount(0)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("drain worker pool: %w", ctx.Err())
		}
	}
	computed, failed := p.Counts()
	p.logger.Info(ctx, "worker pool drained", logger.Int("computed", computed), logger.Int("failed", failed))
	return nil
}

// Shutdown stops all workers without draining the queue.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w.name, err))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return errors.Join(errs...)
}

// Failures returns the per-team errors recorded so far.
func (p *Pool) Failures() map[string]error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]error, len(p.failures))
	for k, v := range p.failures {
		out[k] = v
	}
	return out
}

// Counts returns how many jobs succeeded and failed.
func (p *Pool) Counts() (computed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computed, len(p.failures)
}
