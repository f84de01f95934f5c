package main

import (
	"bytes"
	"math"
	"testing"

	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseData(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "JSON Values",
			pairs: []string{`name="x"`, "count=3", `tags=["a"]`},
			want: map[string]interface{}{
				"name":  "x",
				"count": float64(3),
				"tags":  []interface{}{"a"},
			},
		},
		{
			name:  "Raw String",
			pairs: []string{"name=x"},
			want:  map[string]interface{}{"name": "x"},
		},
		{
			name:  "Value With Equals",
			pairs: []string{"expr=a=b"},
			want:  map[string]interface{}{"expr": "a=b"},
		},
		{
			name:  "None",
			pairs: nil,
			want:  map[string]interface{}{},
		},
		{
			name:    "Missing Equals",
			pairs:   []string{"name"},
			wantErr: true,
		},
		{
			name:    "Empty Key",
			pairs:   []string{"=x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseData(tt.pairs)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintJobs(t *testing.T) {
	j := job.WithID("abc")
	j.SetData("name", "x")
	j.SetState(job.Completed)

	var buf bytes.Buffer
	err := printJobs(&buf, []*job.Job{j})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, `{"name":"x"}`)
}

func TestPrintJobs_BadData(t *testing.T) {
	j := job.New()
	j.SetData("bad", math.NaN())

	err := printJobs(&bytes.Buffer{}, []*job.Job{j})

	assert.ErrorIs(t, err, job.ErrSerialization)
}

func TestPrintMachine(t *testing.T) {
	m := machine.New("deploy", machine.Transition{From: job.Pending, To: job.Cancelled, Condition: "timeout"})

	var buf bytes.Buffer
	err := printMachine(&buf, m)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Machine: deploy")
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "timeout")
}
