package main

import (
	"context"
	"os"

	"github.com/hamba/cmd"
	"github.com/nrwiersma/runekernel/job"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v2"
)

func runJob(c *cli.Context) error {
	ctx, err := cmd.NewContext(c)
	if err != nil {
		return err
	}

	data, err := parseData(ctx.StringSlice(flagData))
	if err != nil {
		return err
	}

	m, err := newMachine(ctx)
	if err != nil {
		return errors.Wrap(err, "could not load state machine")
	}

	var then job.State
	thenStr := ctx.String(flagThen)
	if thenStr != "" {
		if then, err = job.ParseState(thenStr); err != nil {
			return err
		}
	}

	rt, err := newRuntime(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.RegisterStateMachine(m)

	bg, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-cmd.WaitForSignals():
			cancel()
		case <-bg.Done():
		}
	}()

	j := job.New()
	for k, v := range data {
		j.SetData(k, v)
	}

	id, err := rt.SubmitJob(bg, j)
	if err != nil {
		return errors.Wrap(err, "could not submit job")
	}
	if err = rt.RunJob(bg, id); err != nil {
		return errors.Wrap(err, "could not run job")
	}
	if err = rt.Wait(bg, id); err != nil {
		return errors.Wrap(err, "interrupted waiting for job")
	}

	if thenStr != "" {
		if err = rt.TransitionJob(bg, id, m.Name(), then); err != nil {
			return errors.Wrap(err, "could not transition job")
		}
	}

	jobs, err := rt.ListJobs(bg)
	if err != nil {
		return err
	}
	if err = printJobs(os.Stdout, jobs); err != nil {
		return err
	}

	if path := ctx.String(flagExport); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "could not create snapshot file")
		}
		defer f.Close()

		if err = rt.Export(bg, f); err != nil {
			return err
		}
	}

	return nil
}
