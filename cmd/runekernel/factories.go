package main

import (
	"context"
	"errors"

	"github.com/hamba/cmd"
	"github.com/nrwiersma/runekernel"
	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/machine"
)

var errWorkFailed = errors.New("job work failed")

// Runtime =================================

func newRuntime(c *cmd.Context, store runekernel.Storage) (*runekernel.Runtime, error) {
	cfg := runekernel.NewConfig()
	cfg.Storage = store
	cfg.Delay = c.Duration(flagDelay)
	cfg.MaxConcurrentJobs = c.Int64(flagConcurrency)
	cfg.Logger = c.Logger()
	cfg.Statter = c.Statter()

	if c.Bool(flagFail) {
		delay := runekernel.DelayWork(cfg.Delay)
		cfg.Work = func(ctx context.Context, j *job.Job) error {
			if err := delay(ctx, j); err != nil {
				return err
			}
			return errWorkFailed
		}
	}

	return runekernel.New(cfg)
}

// Machine =================================

func newMachine(c *cmd.Context) (machine.StateMachine, error) {
	path := c.String(flagMachine)
	if path == "" {
		return machine.NewSimple(machine.DefaultName), nil
	}

	return newMachineFromFile(path)
}

func newMachineFromFile(path string) (machine.StateMachine, error) {
	m, err := machine.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}
