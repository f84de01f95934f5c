package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit is the number of tasks allowed to run at once when no limit is given.
const DefaultLimit = 10

// Pool errors.
var (
	ErrClosed  = errors.New("worker: pool closed")
	ErrRunning = errors.New("worker: task already running")
)

// Func is a unit of background work.
type Func func(ctx context.Context) error

// DoneFunc is called with the result of a task before it is marked done.
type DoneFunc func(err error, elapsed time.Duration)

// Task is a handle on a running unit of work.
type Task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	err error
}

// ID returns the task id.
func (t *Task) ID() string {
	return t.id
}

// Cancel signals the task to stop.
func (t *Task) Cancel() {
	t.cancel()
}

// Done returns a channel that is closed once the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the error the task finished with. It is only valid once
// Done is closed.
func (t *Task) Err() error {
	<-t.done
	return t.err
}

// Pool runs tracked background tasks with bounded concurrency.
type Pool struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	tasks  map[string]*Task
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewPool returns a pool running at most limit tasks at once.
func NewPool(limit int64) *Pool {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(limit),
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go starts fn in the background under the given id. The task waits for a
// free slot before running. done, if given, is called before the task is
// marked done and removed from the pool.
func (p *Pool) Go(id string, fn Func, done DoneFunc) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if _, ok := p.tasks[id]; ok {
		return nil, ErrRunning
	}

	ctx, cancel := context.WithCancel(p.ctx)
	task := &Task{
		id:     id,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.tasks[id] = task

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()

		start := time.Now()
		err := p.run(ctx, fn)
		if done != nil {
			done(err, time.Since(start))
		}

		p.mu.Lock()
		delete(p.tasks, id)
		p.mu.Unlock()

		task.err = err
		close(task.done)
	}()

	return task, nil
}

func (p *Pool) run(ctx context.Context, fn Func) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	return fn(ctx)
}

// Get returns the running task with the given id.
func (p *Pool) Get(id string) (*Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[id]
	return task, ok
}

// Cancel cancels the task with the given id, reporting if it was found.
func (p *Pool) Cancel(id string) bool {
	task, ok := p.Get(id)
	if !ok {
		return false
	}

	task.Cancel()
	return true
}

// Len returns the number of tracked tasks.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.tasks)
}

// Close cancels all tasks and waits for them to finish.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	return nil
}
