package runekernel

import (
	"context"
	"io"

	"github.com/nrwiersma/runekernel/internal/codec"
	pkgerrors "github.com/pkg/errors"
)

// Export writes a snapshot of all stored jobs to w.
func (r *Runtime) Export(ctx context.Context, w io.Writer) error {
	jobs, err := r.store.ListJobs(ctx)
	if err != nil {
		return err
	}

	enc, err := codec.NewWriter(w, len(jobs))
	if err != nil {
		return pkgerrors.Wrap(err, "runtime: could not write snapshot header")
	}
	for _, j := range jobs {
		if err = enc.WriteJob(j); err != nil {
			return pkgerrors.Wrapf(err, "runtime: could not write job %s", j.ID)
		}
	}

	r.logger.Debug("runtime: snapshot exported", "jobs", len(jobs))
	return nil
}

// Import reads a snapshot from r and stores every job in it, replacing
// jobs with the same id. It returns the number of jobs imported.
func (r *Runtime) Import(ctx context.Context, rd io.Reader) (int, error) {
	dec, err := codec.NewReader(rd)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "runtime: could not read snapshot header")
	}

	var n int
	for {
		j, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, pkgerrors.Wrap(err, "runtime: could not read job")
		}

		if err = r.store.SaveJob(ctx, j); err != nil {
			return n, err
		}
		n++
	}

	r.logger.Debug("runtime: snapshot imported", "jobs", n)
	return n, nil
}
