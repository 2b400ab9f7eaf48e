// Package worker runs independent remote reads concurrently on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPoolBusy is returned by Submit when the queue is full.
	ErrPoolBusy = errors.New("worker pool busy")
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("worker pool closed")
)

const (
	defaultWorkers = 4
	defaultQueue   = 16
)

// Pool is a fixed number of workers draining a bounded queue. Submit never blocks.
type Pool struct {
	mu      sync.RWMutex
	jobs    chan job
	workers []*Worker
	wg      sync.WaitGroup
	closed  bool
	log     logrus.FieldLogger
}

func NewPool(workers, queue int, log logrus.FieldLogger) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queue <= 0 {
		queue = defaultQueue
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pool{jobs: make(chan job, queue), log: log}
	for i := 0; i < workers; i++ {
		w := NewWorker(i+1, p)
		p.workers = append(p.workers, w)
		w.Start()
	}
	return p
}

// Submit queues task, failing fast with ErrPoolBusy when the queue is full.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job{ctx: ctx, task: task}:
		return nil
	default:
		return ErrPoolBusy
	}
}

// Close rejects new tasks, lets the workers drain the queue, and waits for them to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Batch joins a group of tasks submitted together.
type Batch struct {
	pool *Pool
	ctx  context.Context
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func (p *Pool) NewBatch(ctx context.Context) *Batch {
	return &Batch{pool: p, ctx: ctx}
}

// Go submits fn under name. A submission failure is returned here and also by Wait.
func (b *Batch) Go(name string, fn func(ctx context.Context) error) error {
	b.wg.Add(1)
	err := b.pool.Submit(b.ctx, func(ctx context.Context) {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.record(fmt.Errorf("%s: panic: %v", name, r))
				b.pool.log.WithField("task", name).Errorf("task panicked: %v", r)
			}
		}()
		if ctx.Err() != nil {
			b.record(fmt.Errorf("%s: %w", name, ctx.Err()))
			return
		}
		if err := fn(ctx); err != nil {
			b.record(fmt.Errorf("%s: %w", name, err))
		}
	})
	if err != nil {
		b.wg.Done()
		err = fmt.Errorf("%s: %w", name, err)
		b.record(err)
	}
	return err
}

// Wait blocks until every submitted task has finished and joins their errors.
func (b *Batch) Wait() error {
	b.wg.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.errs...)
}

func (b *Batch) record(err error) {
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}
