package job

import (
	"time"

	"github.com/segmentio/ksuid"
)

// ID uniquely identifies a job.
type ID string

// NewID returns a new random job id.
func NewID() ID {
	return ID(ksuid.New().String())
}

// String returns the id as a string.
func (id ID) String() string {
	return string(id)
}

// Job is used to store info about a job and its state.
type Job struct {
	ID        ID
	State     State
	Data      map[string]interface{}
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns a pending job with a generated id.
func New() *Job {
	return WithID(NewID())
}

// WithID returns a pending job with the given id.
func WithID(id ID) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		State:     Pending,
		Data:      make(map[string]interface{}),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetState sets the state of the job. The state machine, not the job,
// decides if the change is legal.
func (j *Job) SetState(s State) {
	j.State = s
	j.touch()
}

// SetData sets a single payload key.
func (j *Job) SetData(key string, value interface{}) {
	if j.Data == nil {
		j.Data = make(map[string]interface{})
	}
	j.Data[key] = value
	j.touch()
}

// touch moves UpdatedAt strictly forward, even when the clock has not.
func (j *Job) touch() {
	now := time.Now().UTC()
	if !now.After(j.UpdatedAt) {
		now = j.UpdatedAt.Add(time.Nanosecond)
	}
	j.UpdatedAt = now
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}

	cp := *j
	cp.Data = cloneMap(j.Data)
	return &cp
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = cloneValue(v)
	}
	return cp
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		cp := make([]interface{}, len(val))
		for i, e := range val {
			cp[i] = cloneValue(e)
		}
		return cp
	case []byte:
		return append([]byte(nil), val...)
	default:
		return v
	}
}
