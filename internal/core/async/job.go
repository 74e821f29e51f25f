package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/core"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks for one file to be processed as a given document type.
type Job struct {
	ID          string
	Path        string
	DocType     string
	Options     core.Options
	SubmittedAt time.Time
}

// Result is delivered once per accepted job.
type Result struct {
	Job      Job
	Document core.Document
	Err      error
	Elapsed  time.Duration
}

// Status reports the terminal lifecycle state of the job.
func (r Result) Status() constants.JobStatus {
	if r.Err != nil {
		return constants.JobStatusFailed
	}
	return constants.JobStatusDone
}

// FileProcessor is what the queue workers run; *core.Processor implements it.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path, docType string, opts core.Options) (core.Document, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
