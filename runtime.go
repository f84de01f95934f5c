package runekernel

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/hamba/pkg/log"
	"github.com/hamba/pkg/stats"
	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/machine"
	"github.com/nrwiersma/runekernel/state"
	"github.com/nrwiersma/runekernel/worker"
)

// Runtime tracks jobs through their lifecycle.
type Runtime struct {
	store    Storage
	work     WorkFunc
	pool     *worker.Pool
	lifetime machine.StateMachine

	machMu   sync.RWMutex
	machines []machine.StateMachine

	// mu serializes read-modify-write sequences on stored jobs
	// and guards runs.
	mu   sync.Mutex
	runs map[job.ID]*run
	seq  uint64

	logger  log.Logger
	statter stats.Statter
}

// run is the background work of a single RunJob call.
type run struct {
	seq  uint64
	task *worker.Task
}

// New creates an instance of Runtime.
func New(cfg Config) (*Runtime, error) {
	def := NewConfig()
	if cfg.Storage == nil {
		store, err := state.New()
		if err != nil {
			return nil, &job.StorageError{Err: err}
		}
		cfg.Storage = store
	}
	if cfg.Delay <= 0 {
		cfg.Delay = def.Delay
	}
	if cfg.Work == nil {
		cfg.Work = DelayWork(cfg.Delay)
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = def.MaxConcurrentJobs
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.Statter == nil {
		cfg.Statter = def.Statter
	}

	return &Runtime{
		store:    cfg.Storage,
		work:     cfg.Work,
		pool:     worker.NewPool(cfg.MaxConcurrentJobs),
		lifetime: machine.NewSimple(machine.DefaultName),
		runs:     make(map[job.ID]*run),
		logger:   cfg.Logger,
		statter:  cfg.Statter,
	}, nil
}

// RegisterStateMachine adds a state machine. Names are not checked
// for uniqueness.
func (r *Runtime) RegisterStateMachine(m machine.StateMachine) {
	r.machMu.Lock()
	defer r.machMu.Unlock()

	r.machines = append(r.machines, m)
}

// StateMachines returns the registered state machines in registration order.
func (r *Runtime) StateMachines() []machine.StateMachine {
	r.machMu.RLock()
	defer r.machMu.RUnlock()

	return append([]machine.StateMachine(nil), r.machines...)
}

// StateMachine returns the first registered machine with the given name.
func (r *Runtime) StateMachine(name string) (machine.StateMachine, bool) {
	r.machMu.RLock()
	defer r.machMu.RUnlock()

	for _, m := range r.machines {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// SubmitJob stores the job as given and returns its id.
func (r *Runtime) SubmitJob(ctx context.Context, j *job.Job) (job.ID, error) {
	if j == nil {
		return "", &job.InternalError{Msg: "runtime: job cannot be nil"}
	}

	if err := r.store.SaveJob(ctx, j); err != nil {
		return "", err
	}

	r.logger.Debug("runtime: job submitted", "job_id", string(j.ID), "state", j.State.String())
	r.statter.Inc("job.submitted", 1, 1.0)

	return j.ID, nil
}

// GetJob returns the job with the given id.
func (r *Runtime) GetJob(ctx context.Context, id job.ID) (*job.Job, error) {
	return r.store.LoadJob(ctx, id)
}

// ListJobs returns all stored jobs.
func (r *Runtime) ListJobs(ctx context.Context) ([]*job.Job, error) {
	return r.store.ListJobs(ctx)
}

// UpdateJobState sets the state of a job without checking the transition.
func (r *Runtime) UpdateJobState(ctx context.Context, id job.ID, s job.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.store.LoadJob(ctx, id)
	if err != nil {
		return err
	}

	j.SetState(s)
	return r.store.SaveJob(ctx, j)
}

// TransitionJob sets the state of a job if the named state machine
// allows it.
func (r *Runtime) TransitionJob(ctx context.Context, id job.ID, machineName string, s job.State) error {
	m, ok := r.StateMachine(machineName)
	if !ok {
		return &job.InternalError{Msg: "runtime: unknown state machine " + machineName}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.store.LoadJob(ctx, id)
	if err != nil {
		return err
	}

	if err = m.ValidateTransition(j.State, s); err != nil {
		return err
	}

	j.SetState(s)
	return r.store.SaveJob(ctx, j)
}

// RunJob moves a pending job to running and starts its work in the background.
func (r *Runtime) RunJob(ctx context.Context, id job.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.store.LoadJob(ctx, id)
	if err != nil {
		return err
	}

	if j.State != job.Pending {
		return job.NewTransitionError(j.State, job.Running)
	}
	j.SetState(job.Running)

	// A previous run that is still winding down is superseded.
	if prev, ok := r.runs[id]; ok {
		prev.task.Cancel()
		delete(r.runs, id)
	}

	r.seq++
	cur := &run{seq: r.seq}
	work := j.Clone()
	task, err := r.pool.Go(string(id)+"/"+strconv.FormatUint(cur.seq, 10), func(ctx context.Context) error {
		return r.work(ctx, work)
	}, func(err error, elapsed time.Duration) {
		r.finish(id, cur, err, elapsed)
	})
	if err != nil {
		return &job.InternalError{Msg: "runtime: could not start job: " + err.Error()}
	}
	cur.task = task

	// The task cannot complete before the lock is released, so a failed
	// save is undone by cancelling it.
	if err = r.store.SaveJob(ctx, j); err != nil {
		task.Cancel()
		return err
	}
	r.runs[id] = cur

	r.logger.Info("runtime: job started", "job_id", string(id))
	r.statter.Inc("job.started", 1, 1.0)

	return nil
}

// finish records the outcome of a job's background work.
func (r *Runtime) finish(id job.ID, cur *run, err error, elapsed time.Duration) {
	r.statter.Timing("job.duration", elapsed, 1.0)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runs[id] != cur {
		r.logger.Debug("runtime: job run superseded", "job_id", string(id))
		return
	}
	delete(r.runs, id)

	if errors.Is(err, context.Canceled) {
		r.logger.Debug("runtime: job work cancelled", "job_id", string(id))
		return
	}

	ctx := context.Background()
	j, lerr := r.store.LoadJob(ctx, id)
	if lerr != nil {
		r.logger.Error("runtime: could not load finished job", "job_id", string(id), "error", lerr)
		return
	}
	if j.State != job.Running {
		r.logger.Debug("runtime: job no longer running", "job_id", string(id), "state", j.State.String())
		return
	}

	to, metric := job.Completed, "job.completed"
	if err != nil {
		to, metric = job.Failed, "job.failed"
	}
	if verr := r.lifetime.ValidateTransition(j.State, to); verr != nil {
		r.logger.Error("runtime: could not finish job", "job_id", string(id), "error", verr)
		return
	}

	j.SetState(to)
	if serr := r.store.SaveJob(ctx, j); serr != nil {
		r.logger.Error("runtime: could not save finished job", "job_id", string(id), "error", serr)
		return
	}

	if err != nil {
		r.logger.Info("runtime: job failed", "job_id", string(id), "error", err)
	} else {
		r.logger.Info("runtime: job completed", "job_id", string(id))
	}
	r.statter.Inc(metric, 1, 1.0)
}

// CancelJob stops the job's background work, if any, and marks it cancelled.
func (r *Runtime) CancelJob(ctx context.Context, id job.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.store.LoadJob(ctx, id)
	if err != nil {
		return err
	}

	if j.State.Terminal() {
		return job.NewTransitionError(j.State, job.Cancelled)
	}

	if cur, ok := r.runs[id]; ok {
		cur.task.Cancel()
	}

	j.SetState(job.Cancelled)
	if err = r.store.SaveJob(ctx, j); err != nil {
		return err
	}

	r.logger.Info("runtime: job cancelled", "job_id", string(id))
	r.statter.Inc("job.cancelled", 1, 1.0)

	return nil
}

// Wait blocks until the background work of the job has finished and its
// outcome is stored.
func (r *Runtime) Wait(ctx context.Context, id job.ID) error {
	r.mu.Lock()
	cur, ok := r.runs[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cur.task.Done():
		return nil
	}
}

// Close cancels all background work and waits for it to stop.
func (r *Runtime) Close() error {
	return r.pool.Close()
}
