package runekernel

import (
	"context"

	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/state"
)

// Storage is the authoritative keeper of job records. Implementations must
// be safe for concurrent use and work on whole-record copies.
type Storage interface {
	// SaveJob inserts or replaces the job with the same id.
	SaveJob(ctx context.Context, j *job.Job) error

	// LoadJob returns the job with the given id or a *job.NotFoundError.
	LoadJob(ctx context.Context, id job.ID) (*job.Job, error)

	// ListJobs returns all jobs at the time of the call.
	ListJobs(ctx context.Context) ([]*job.Job, error)
}

var _ Storage = (*state.Store)(nil)
