package worker

import "context"

// Task is one unit of work. It receives the context of the batch that submitted it.
type Task func(ctx context.Context)

type job struct {
	ctx  context.Context
	task Task
}

type Worker struct {
	id   int
	pool *Pool
}

func NewWorker(id int, pool *Pool) *Worker {
	return &Worker{id: id, pool: pool}
}

// Start runs queued jobs until the pool's queue is closed.
func (w *Worker) Start() {
	w.pool.wg.Add(1)
	go func() {
		defer w.pool.wg.Done()
		for j := range w.pool.jobs {
			w.run(j)
		}
		debugLog(w.pool.log, "worker %d: stopped", w.id)
	}()
}

func (w *Worker) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			w.pool.log.WithField("worker", w.id).Errorf("task panicked: %v", r)
		}
	}()
	debugLog(w.pool.log, "worker %d: start task", w.id)
	j.task(j.ctx)
	debugLog(w.pool.log, "worker %d: task done", w.id)
}
