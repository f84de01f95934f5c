package state

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/nrwiersma/runekernel/job"
)

const (
	tableIndex = "index"
	tableJobs  = "jobs"
)

// Store is an in-memory job state store.
//
// Writes are serialized by the single memdb writer transaction, so all
// saves observe one total order. Reads work on immutable snapshots and
// never block writers.
type Store struct {
	schema *memdb.DBSchema
	db     *memdb.MemDB
}

// New returns a job state store.
func New() (*Store, error) {
	dbSchema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableIndex: indexTableSchema(),
			tableJobs:  jobsTableSchema(),
		},
	}

	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}

	return &Store{
		schema: dbSchema,
		db:     db,
	}, nil
}

// LastIndex returns the index of the last write to the store.
func (s *Store) LastIndex() uint64 {
	tx := s.db.Txn(false)
	defer tx.Abort()

	var tables []string
	for table := range s.schema.Tables {
		tables = append(tables, table)
	}
	return maxIndex(tx, tables...)
}

// IndexEntry keeps a record of the last index per-table.
type IndexEntry struct {
	Table string
	Index uint64
}

// indexTableSchema returns a new table schema used for tracking the last write per table.
func indexTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableIndex,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:         "id",
				AllowMissing: false,
				Unique:       true,
				Indexer: &memdb.StringFieldIndex{
					Field:     "Table",
					Lowercase: true,
				},
			},
		},
	}
}

func updateIndex(tx *memdb.Txn, tbl string, idx uint64) error {
	if err := tx.Insert(tableIndex, &IndexEntry{Table: tbl, Index: idx}); err != nil {
		return fmt.Errorf("index insert failed: %w", err)
	}
	return nil
}

func maxIndex(tx *memdb.Txn, tables ...string) uint64 {
	var max uint64

	for _, table := range tables {
		ti, err := tx.First(tableIndex, "id", table)
		if err != nil {
			continue
		}

		if idx, ok := ti.(*IndexEntry); ok && idx.Index > max {
			max = idx.Index
		}
	}
	return max
}

func storageErr(err error) error {
	return &job.StorageError{Err: err}
}
