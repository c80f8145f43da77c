// File: internal/telemetry/record.go
// Package telemetry carries observation records out of the agent loop: to a
// JSON-lines file, to the database, and into a running belief estimate.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one forwarded observation.
type Record struct {
	RunID   string  `json:"run_id"`
	Robot   string  `json:"robot"`
	Tick    int     `json:"tick"`
	SimTime float64 `json:"sim_time"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Mode    string  `json:"mode"`
	// Class is 0 (black), 1 (white) or -1 (unclassified).
	Class int     `json:"class"`
	Raw   float64 `json:"raw"`
}

// Recorder persists records.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Record) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, r Record) error { return f(ctx, r) }

// Multi fans a record out to every recorder and joins their errors.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, r Record) error {
	var errs []error
	for _, rec := range m {
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JSONL writes one JSON object per line.
type JSONL struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewJSONL writes records to w.
func NewJSONL(w io.Writer) *JSONL {
	return &JSONL{w: w}
}

// OpenJSONL appends records to the file at path, creating it if needed.
func OpenJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &JSONL{w: f, closer: f}, nil
}

// Record implements Recorder.
func (j *JSONL) Record(_ context.Context, r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.w.Write(line)
	return err
}

// Close closes the underlying file when the recorder owns one.
func (j *JSONL) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}

// DecodeRecord parses one JSON line.
func DecodeRecord(line []byte) (Record, error) {
	var r Record
	err := json.Unmarshal(line, &r)
	return r, err
}
