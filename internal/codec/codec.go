package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/nrwiersma/runekernel/job"
)

// Version is the snapshot format version.
const Version = 1

// MessageType is the type of a snapshot record.
type MessageType uint8

// Record types.
const (
	JobType MessageType = iota
)

// msgpackHandle is a shared handle for encoding/decoding of snapshot records.
var msgpackHandle = &codec.MsgpackHandle{}

// Header opens every snapshot.
type Header struct {
	Version int
	Count   int
}

// Record is the wire form of a job.
type Record struct {
	ID        string
	State     int8
	Data      []byte
	CreatedAt int64
	UpdatedAt int64
}

// ToRecord converts a job to its wire form.
func ToRecord(j *job.Job) (Record, error) {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return Record{}, &job.SerializationError{Err: fmt.Errorf("job %s payload: %w", j.ID, err)}
	}

	return Record{
		ID:        string(j.ID),
		State:     int8(j.State),
		Data:      data,
		CreatedAt: j.CreatedAt.UnixNano(),
		UpdatedAt: j.UpdatedAt.UnixNano(),
	}, nil
}

// FromRecord converts a wire record back to a job.
func FromRecord(r Record) (*job.Job, error) {
	if r.ID == "" {
		return nil, &job.SerializationError{Err: errors.New("record has no id")}
	}

	st := job.State(r.State)
	if !st.Valid() {
		return nil, &job.SerializationError{Err: fmt.Errorf("job %s has invalid state %d", r.ID, r.State)}
	}

	var data map[string]interface{}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, &job.SerializationError{Err: fmt.Errorf("job %s payload: %w", r.ID, err)}
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	return &job.Job{
		ID:        job.ID(r.ID),
		State:     st,
		Data:      data,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}, nil
}

// Writer writes a job snapshot stream.
type Writer struct {
	enc *codec.Encoder
}

// NewWriter writes the snapshot header for count jobs and returns a writer.
func NewWriter(w io.Writer, count int) (*Writer, error) {
	enc := codec.NewEncoder(w, msgpackHandle)
	if err := enc.Encode(&Header{Version: Version, Count: count}); err != nil {
		return nil, &job.SerializationError{Err: err}
	}

	return &Writer{enc: enc}, nil
}

// WriteJob writes a single job.
func (w *Writer) WriteJob(j *job.Job) error {
	rec, err := ToRecord(j)
	if err != nil {
		return err
	}

	if err = w.enc.Encode(JobType); err != nil {
		return &job.SerializationError{Err: err}
	}
	if err = w.enc.Encode(&rec); err != nil {
		return &job.SerializationError{Err: err}
	}
	return nil
}

// Reader reads a job snapshot stream.
type Reader struct {
	dec    *codec.Decoder
	header Header
	read   int
}

// NewReader reads the snapshot header and returns a reader.
func NewReader(r io.Reader) (*Reader, error) {
	dec := codec.NewDecoder(r, msgpackHandle)

	var header Header
	if err := dec.Decode(&header); err != nil {
		return nil, &job.SerializationError{Err: fmt.Errorf("reading header: %w", err)}
	}
	if header.Version != Version {
		return nil, &job.SerializationError{Err: fmt.Errorf("unsupported snapshot version %d", header.Version)}
	}

	return &Reader{dec: dec, header: header}, nil
}

// Header returns the snapshot header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next job, or io.EOF once all jobs have been read.
func (r *Reader) Next() (*job.Job, error) {
	if r.read >= r.header.Count {
		return nil, io.EOF
	}

	var t MessageType
	if err := r.dec.Decode(&t); err != nil {
		return nil, &job.SerializationError{Err: fmt.Errorf("reading record type: %w", err)}
	}
	if t != JobType {
		return nil, &job.SerializationError{Err: fmt.Errorf("unknown record type %d", t)}
	}

	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return nil, &job.SerializationError{Err: fmt.Errorf("reading record: %w", err)}
	}
	r.read++

	return FromRecord(rec)
}
