package job_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nrwiersma/runekernel/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	j := job.New()

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, job.Pending, j.State)
	assert.NotNil(t, j.Data)
	assert.Equal(t, j.CreatedAt, j.UpdatedAt)
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := map[job.ID]bool{}
	for i := 0; i < 100; i++ {
		id := job.New().ID
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestWithID(t *testing.T) {
	j := job.WithID("my-job")

	assert.Equal(t, job.ID("my-job"), j.ID)
	assert.Equal(t, job.Pending, j.State)
}

func TestJob_SetState(t *testing.T) {
	j := job.New()
	before := j.UpdatedAt

	j.SetState(job.Running)

	assert.Equal(t, job.Running, j.State)
	assert.True(t, j.UpdatedAt.After(before))
	assert.False(t, j.UpdatedAt.Before(j.CreatedAt))
}

func TestJob_SetData(t *testing.T) {
	j := job.New()
	before := j.UpdatedAt

	j.SetData("name", "x")
	j.SetData("name", "y")

	assert.Equal(t, "y", j.Data["name"])
	assert.True(t, j.UpdatedAt.After(before))
}

func TestJob_SetDataNilMap(t *testing.T) {
	j := &job.Job{ID: "id"}

	j.SetData("foo", 1)

	assert.Equal(t, 1, j.Data["foo"])
}

func TestJob_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	j := job.New()

	for i := 0; i < 50; i++ {
		prev := j.UpdatedAt
		if i%2 == 0 {
			j.SetState(job.Running)
		} else {
			j.SetData("i", i)
		}

		require.True(t, j.UpdatedAt.After(prev))
		require.False(t, j.UpdatedAt.Before(j.CreatedAt))
	}
}

func TestJob_Clone(t *testing.T) {
	j := job.New()
	j.SetData("nested", map[string]interface{}{"a": []interface{}{1, "b"}})

	got := j.Clone()
	got.Data["nested"].(map[string]interface{})["a"].([]interface{})[0] = 2
	got.SetState(job.Failed)

	assert.Equal(t, job.Pending, j.State)
	assert.Equal(t, 1, j.Data["nested"].(map[string]interface{})["a"].([]interface{})[0])
	assert.Equal(t, j.ID, got.ID)
}

func TestJob_CloneNil(t *testing.T) {
	var j *job.Job

	assert.Nil(t, j.Clone())
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    job.State
		wantErr bool
	}{
		{in: "Pending", want: job.Pending},
		{in: "running", want: job.Running},
		{in: " COMPLETED ", want: job.Completed},
		{in: "failed", want: job.Failed},
		{in: "Cancelled", want: job.Cancelled},
		{in: "done", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := job.ParseState(tt.in)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestState_Text(t *testing.T) {
	for _, s := range job.States() {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var got job.State
		err = got.UnmarshalText(b)

		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := job.State(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "State(42)", job.State(42).String())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, job.Pending.Terminal())
	assert.False(t, job.Running.Terminal())
	assert.True(t, job.Completed.Terminal())
	assert.True(t, job.Failed.Terminal())
	assert.True(t, job.Cancelled.Terminal())
}

func TestErrors_Is(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "Storage", err: &job.StorageError{Err: cause}, kind: job.ErrStorage},
		{name: "Not Found", err: &job.NotFoundError{ID: "x"}, kind: job.ErrNotFound},
		{name: "Transition", err: job.NewTransitionError(job.Pending, job.Completed), kind: job.ErrInvalidTransition},
		{name: "Serialization", err: &job.SerializationError{Err: cause}, kind: job.ErrSerialization},
		{name: "Internal", err: &job.InternalError{Msg: "oops"}, kind: job.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("runtime: %w", tt.err)

			assert.True(t, errors.Is(wrapped, tt.kind))
		})
	}
}

func TestErrors_Messages(t *testing.T) {
	assert.Equal(t, "job not found: abc", (&job.NotFoundError{ID: "abc"}).Error())
	assert.Equal(t,
		"invalid transition: cannot transition from Completed to Running",
		job.NewTransitionError(job.Completed, job.Running).Error(),
	)

	cause := errors.New("bad bytes")
	err := &job.SerializationError{Err: cause}
	assert.True(t, errors.Is(err, cause))
}
