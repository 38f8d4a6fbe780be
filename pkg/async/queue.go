// Package async runs detached, fire-and-forget tasks on a small worker pool.
package async

import (
	"context"
	"errors"
	"sync"

	"github.com/smallbiznis/collections/internal/config"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Task receives a context detached from the submitting request's cancellation.
type Task func(ctx context.Context)

type Config struct {
	Workers    int
	BufferSize int
}

type Queue struct {
	log    *zap.Logger
	tasks  chan Task
	wg     conc.WaitGroup
	mu     sync.RWMutex
	closed bool
}

var Module = fx.Module("async",
	fx.Provide(provideQueue),
)

func provideQueue(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *Queue {
	q := NewQueue(log, Config{Workers: cfg.AsyncWorkers, BufferSize: cfg.AsyncBufferSize})
	lc.Append(fx.Hook{
		OnStop: q.Close,
	})
	return q
}

func NewQueue(log *zap.Logger, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize < 0 {
		cfg.BufferSize = 0
	}
	if log == nil {
		log = zap.NewNop()
	}

	q := &Queue{
		log:   log.Named("async.queue"),
		tasks: make(chan Task, cfg.BufferSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Go(q.work)
	}
	return q
}

// Submit hands task to a worker. Once the queue is closed the task runs
// inline so late writes are not lost.
func (q *Queue) Submit(ctx context.Context, task Task) {
	if task == nil {
		return
	}
	detached := context.WithoutCancel(ctx)

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.run(detached, task)
		return
	}
	q.tasks <- func(context.Context) { task(detached) }
	q.mu.RUnlock()
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("async queue: drain interrupted"), ctx.Err())
	}
}

func (q *Queue) work() {
	for task := range q.tasks {
		q.run(context.Background(), task)
	}
}

func (q *Queue) run(ctx context.Context, task Task) {
	var catcher panics.Catcher
	catcher.Try(func() { task(ctx) })
	if recovered := catcher.Recovered(); recovered != nil {
		q.log.Error("task panicked", zap.Error(recovered.AsError()))
	}
}
