package constants

// ValidationStatus is attached to every merged record.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusPartial ValidationStatus = "partial" // validated, but some chunks failed or had coercion errors
	StatusInvalid ValidationStatus = "invalid" // schema validation failed; data returned as merged
)

// JobStatus is the lifecycle of a document in the batch queue.
type JobStatus string

const (
	JobStatusDone   JobStatus = "DONE"
	JobStatusFailed JobStatus = "FAILED"
)

// Candidate error classes recorded on failed per-chunk extractions.
const (
	CandidateErrorTransport = "transport"
	CandidateErrorFormat    = "format"
)
