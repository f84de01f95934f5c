package machine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nrwiersma/runekernel/job"
	"gopkg.in/yaml.v3"
)

type definition struct {
	Name        string                 `yaml:"name"`
	Transitions []transitionDefinition `yaml:"transitions"`
}

type transitionDefinition struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Condition string `yaml:"condition"`
}

// Load reads a YAML machine definition.
//
//	name: review
//	transitions:
//	  - from: pending
//	    to: running
//	  - from: running
//	    to: cancelled
//	    condition: operator abort
func Load(r io.Reader) (*Simple, error) {
	var def definition
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("machine: empty definition")
		}
		return nil, fmt.Errorf("machine: decoding definition: %w", err)
	}

	if def.Name == "" {
		return nil, errors.New("machine: definition has no name")
	}
	if len(def.Transitions) == 0 {
		return nil, fmt.Errorf("machine: %s has no transitions", def.Name)
	}

	transitions := make([]Transition, 0, len(def.Transitions))
	for i, t := range def.Transitions {
		from, err := job.ParseState(t.From)
		if err != nil {
			return nil, fmt.Errorf("machine: %s transition %d: %w", def.Name, i, err)
		}
		to, err := job.ParseState(t.To)
		if err != nil {
			return nil, fmt.Errorf("machine: %s transition %d: %w", def.Name, i, err)
		}

		transitions = append(transitions, Transition{From: from, To: to, Condition: t.Condition})
	}

	return New(def.Name, transitions...), nil
}

// LoadFile reads a YAML machine definition from a file.
func LoadFile(path string) (*Simple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	defer f.Close()

	return Load(f)
}
