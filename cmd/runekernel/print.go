package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nrwiersma/runekernel/job"
	"github.com/nrwiersma/runekernel/machine"
	"github.com/pkg/errors"
)

// parseData parses key=value pairs. Values that are not valid JSON are
// kept as strings.
func parseData(pairs []string) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("invalid data %q, expected key=value", pair)
		}

		var val interface{}
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			val = v
		}
		data[k] = val
	}
	return data, nil
}

func printJobs(w io.Writer, jobs []*job.Job) error {
	tw := tabwriter.NewWriter(w, 10, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", "ID", "State", "Created", "Updated", "Data")
	for _, j := range jobs {
		data, err := json.Marshal(j.Data)
		if err != nil {
			return &job.SerializationError{Err: err}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			j.ID,
			j.State,
			j.CreatedAt.Format(time.RFC3339),
			j.UpdatedAt.Format(time.RFC3339Nano),
			data,
		)
	}
	fmt.Fprintln(tw, "")
	return tw.Flush()
}

func printMachine(w io.Writer, m machine.StateMachine) error {
	tw := tabwriter.NewWriter(w, 10, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Machine: %s\n", m.Name())
	fmt.Fprintln(tw, "")
	fmt.Fprintf(tw, "%s\t%s\t%s\n", "From", "To", "Condition")
	for _, t := range m.Transitions() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.From, t.To, t.Condition)
	}
	fmt.Fprintln(tw, "")
	return tw.Flush()
}
