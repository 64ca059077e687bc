// Package job implements the per-file state machine behind both the CLI and
// the local web UI: files are added as pending jobs, metadata is extracted
// in the background, and cleaning runs one job at a time on request.
package job

import (
	"context"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/artifact"
	"github.com/google/uuid"
)

// State is the lifecycle position of a job.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateProcessed  State = "processed"
)

// MetaState distinguishes "still reading" from "nothing found".
type MetaState string

const (
	MetaLoading MetaState = "loading"
	MetaNone    MetaState = "none"
	MetaLoaded  MetaState = "loaded"
)

// Job is an immutable snapshot of one file's progress. The manager never
// mutates a Job it has handed out; every change replaces the record.
type Job struct {
	ID      uuid.UUID
	Source  core.SourceFile
	Preview artifact.Handle
	AddedAt time.Time

	State      State
	Meta       MetaState
	Tags       core.Tags      // set iff Meta == MetaLoaded
	Applicable core.OptionSet // empty until metadata settles
	Options    core.Options   // readable only while pending
	Result     *core.Result   // set iff State == StateProcessed

	Download   artifact.Handle // latest download handle, if any
	Downloaded bool
}

// Counts tallies jobs by state.
type Counts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Processed  int `json:"processed"`
}

// Total returns the number of jobs counted.
func (c Counts) Total() int { return c.Pending + c.Processing + c.Processed }

// Extractor reads metadata from a file. A nil result means none was found
// or it could not be read.
type Extractor interface {
	Extract(ctx context.Context, src core.SourceFile) core.Tags
}

// Cleaner removes metadata from file bytes.
type Cleaner interface {
	Clean(ctx context.Context, data []byte, opts core.Options) (*core.Result, error)
}

// Download describes one delivered result.
type Download struct {
	JobID  uuid.UUID
	Name   string
	MIME   string
	Handle artifact.Handle
	Data   []byte
}

// DownloadFunc delivers a cleaned file to the user. It is called outside
// the manager's lock.
type DownloadFunc func(ctx context.Context, d Download) error
