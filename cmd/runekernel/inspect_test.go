package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/nrwiersma/runekernel"
	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T, states ...job.State) ([]byte, []*job.Job) {
	t.Helper()

	src, err := runekernel.New(runekernel.Config{})
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	var jobs []*job.Job
	for _, s := range states {
		j := job.New()
		j.SetState(s)
		_, err = src.SubmitJob(ctx, j)
		require.NoError(t, err)
		jobs = append(jobs, j)
	}

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))
	return buf.Bytes(), jobs
}

func newInspectRuntime(t *testing.T) (*runekernel.Runtime, *state.Store) {
	t.Helper()

	store, err := state.New()
	require.NoError(t, err)
	rt, err := runekernel.New(runekernel.Config{Storage: store})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = rt.Close()
	})
	return rt, store
}

func TestImportJobs(t *testing.T) {
	data, _ := snapshot(t, job.Pending, job.Failed, job.Completed)
	rt, store := newInspectRuntime(t)

	jobs, err := importJobs(rt, store, bytes.NewReader(data), "")

	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	assert.Equal(t, uint64(3), store.LastIndex())
}

func TestImportJobs_ByState(t *testing.T) {
	data, src := snapshot(t, job.Pending, job.Failed, job.Completed, job.Failed)
	rt, store := newInspectRuntime(t)

	jobs, err := importJobs(rt, store, bytes.NewReader(data), "failed")

	require.NoError(t, err)
	require.Len(t, jobs, 2)
	ids := []job.ID{jobs[0].ID, jobs[1].ID}
	assert.ElementsMatch(t, []job.ID{src[1].ID, src[3].ID}, ids)
	for _, j := range jobs {
		assert.Equal(t, job.Failed, j.State)
	}
}

func TestImportJobs_BadState(t *testing.T) {
	data, _ := snapshot(t, job.Pending)
	rt, store := newInspectRuntime(t)

	_, err := importJobs(rt, store, bytes.NewReader(data), "sleeping")

	assert.Error(t, err)
}
