package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/nrwiersma/runekernel/job"
	pkgerrors "github.com/pkg/errors"
)

func jobsTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableJobs,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:         "id",
				AllowMissing: false,
				Unique:       true,
				Indexer: &memdb.StringFieldIndex{
					Field: "ID",
				},
			},
			"state": {
				Name:         "state",
				AllowMissing: false,
				Unique:       false,
				Indexer:      stateIndex{},
			},
		},
	}
}

// stateIndex indexes jobs by their state.
type stateIndex struct{}

func (stateIndex) FromObject(obj interface{}) (bool, []byte, error) {
	j, ok := obj.(*job.Job)
	if !ok {
		return false, nil, fmt.Errorf("unexpected object type %T", obj)
	}
	return true, []byte{byte(j.State)}, nil
}

func (stateIndex) FromArgs(args ...interface{}) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.New("must provide only a single argument")
	}
	s, ok := args[0].(job.State)
	if !ok {
		return nil, fmt.Errorf("argument must be a job.State: %#v", args[0])
	}
	return []byte{byte(s)}, nil
}

// SaveJob inserts or replaces a job. The store keeps its own copy.
func (s *Store) SaveJob(_ context.Context, j *job.Job) error {
	if j == nil || j.ID == "" {
		return &job.InternalError{Msg: "state: job must have an id"}
	}

	tx := s.db.Txn(true)
	defer tx.Abort()

	idx := maxIndex(tx, tableJobs) + 1
	if err := tx.Insert(tableJobs, j.Clone()); err != nil {
		return storageErr(pkgerrors.Wrap(err, "state: failed inserting job"))
	}
	if err := updateIndex(tx, tableJobs, idx); err != nil {
		return storageErr(pkgerrors.Wrap(err, "state: failed updating index"))
	}

	tx.Commit()
	return nil
}

// LoadJob returns a copy of the job with the given id.
func (s *Store) LoadJob(_ context.Context, id job.ID) (*job.Job, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	raw, err := tx.First(tableJobs, "id", string(id))
	if err != nil {
		return nil, storageErr(pkgerrors.Wrap(err, "state: job lookup failed"))
	}
	if raw == nil {
		return nil, &job.NotFoundError{ID: id}
	}
	return raw.(*job.Job).Clone(), nil
}

// ListJobs returns a copy of all jobs, ordered by id.
func (s *Store) ListJobs(_ context.Context) ([]*job.Job, error) {
	_, jobs, err := s.Jobs(nil)
	return jobs, err
}

// Jobs returns all the jobs as well as the last write index. The watch set,
// if given, is notified when the jobs change.
func (s *Store) Jobs(ws memdb.WatchSet) (uint64, []*job.Job, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	idx := maxIndex(tx, tableJobs)
	iter, err := tx.Get(tableJobs, "id")
	if err != nil {
		return 0, nil, storageErr(pkgerrors.Wrap(err, "state: job lookup failed"))
	}
	if ws != nil {
		ws.Add(iter.WatchCh())
	}

	return idx, collect(iter), nil
}

// JobsByState returns the jobs in the given state as well as the last write
// index. The watch set, if given, is notified when the result changes.
func (s *Store) JobsByState(ws memdb.WatchSet, st job.State) (uint64, []*job.Job, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	idx := maxIndex(tx, tableJobs)
	iter, err := tx.Get(tableJobs, "state", st)
	if err != nil {
		return 0, nil, storageErr(pkgerrors.Wrap(err, "state: job lookup failed"))
	}
	if ws != nil {
		ws.Add(iter.WatchCh())
	}

	return idx, collect(iter), nil
}

func collect(iter memdb.ResultIterator) []*job.Job {
	jobs := []*job.Job{}
	for next := iter.Next(); next != nil; next = iter.Next() {
		jobs = append(jobs, next.(*job.Job).Clone())
	}
	return jobs
}
