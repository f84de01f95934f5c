package runekernel

import (
	"context"
	"time"

	"github.com/hamba/pkg/log"
	"github.com/hamba/pkg/stats"
	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/worker"
)

const (
	// DefaultDelay is how long the default work function waits.
	DefaultDelay = time.Second

	// DefaultMaxConcurrentJobs is the default number of jobs
	// allowed to do work at the same time.
	DefaultMaxConcurrentJobs = worker.DefaultLimit
)

// WorkFunc is the background unit of work started by RunJob. The job
// passed is a copy of the stored record. Returning nil completes the job,
// an error fails it.
type WorkFunc func(ctx context.Context, j *job.Job) error

// Config holds the configuration for a Runtime.
type Config struct {
	// Storage is the job storage. Defaults to an in-memory store.
	Storage Storage

	// Work is the unit of work run in the background for a running job.
	// Defaults to waiting Delay.
	Work WorkFunc

	// Delay is the time the default work function waits.
	Delay time.Duration

	// MaxConcurrentJobs is the number of jobs allowed to do work
	// at the same time.
	MaxConcurrentJobs int64

	// Logger is the logger to log to.
	Logger log.Logger

	// Statter is the statter to send stats to.
	Statter stats.Statter
}

// NewConfig creates/returns a default configuration.
func NewConfig() Config {
	return Config{
		Delay:             DefaultDelay,
		MaxConcurrentJobs: DefaultMaxConcurrentJobs,
		Logger:            log.Null,
		Statter:           stats.Null,
	}
}

// DelayWork returns a work function that waits d, or until the job is cancelled.
func DelayWork(d time.Duration) WorkFunc {
	return func(ctx context.Context, _ *job.Job) error {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}
