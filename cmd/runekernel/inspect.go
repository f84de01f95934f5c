package main

import (
	"context"
	"io"
	"os"

	"github.com/hamba/cmd"
	"github.com/nrwiersma/runekernel"
	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/state"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v2"
)

func runInspect(c *cli.Context) error {
	ctx, err := cmd.NewContext(c)
	if err != nil {
		return err
	}

	path := ctx.String(flagFile)
	if path == "" {
		return errors.New("a snapshot file is required")
	}

	store, err := state.New()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, store)
	if err != nil {
		return err
	}
	defer rt.Close()

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open snapshot file")
	}
	defer f.Close()

	jobs, err := importJobs(rt, store, f, ctx.String(flagState))
	if err != nil {
		return err
	}
	ctx.Logger().Info("inspect: snapshot imported", "jobs", len(jobs), "index", store.LastIndex())

	return printJobs(os.Stdout, jobs)
}

// importJobs imports a snapshot and returns the stored jobs, only those
// in the named state when one is given.
func importJobs(rt *runekernel.Runtime, store *state.Store, rd io.Reader, stateName string) ([]*job.Job, error) {
	var (
		st      job.State
		byState bool
		err     error
	)
	if stateName != "" {
		if st, err = job.ParseState(stateName); err != nil {
			return nil, err
		}
		byState = true
	}

	if _, err = rt.Import(context.Background(), rd); err != nil {
		return nil, err
	}

	var jobs []*job.Job
	if byState {
		_, jobs, err = store.JobsByState(nil, st)
	} else {
		_, jobs, err = store.Jobs(nil)
	}
	return jobs, err
}

func runMachine(c *cli.Context) error {
	path := c.String(flagFile)
	if path == "" {
		return errors.New("a machine file is required")
	}

	m, err := newMachineFromFile(path)
	if err != nil {
		return err
	}

	return printMachine(os.Stdout, m)
}
