package extract

import (
	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/schema"
)

// Candidate is the outcome of extracting one chunk. A failed candidate has
// Success=false, an empty Data map and Error set to one of the
// constants.CandidateError* kinds.
type Candidate struct {
	ChunkIndex  int
	Data        map[string]any
	Success     bool
	Error       string
	Cause       error
	FieldErrors []schema.FieldError
}

// Failed reports whether the candidate contributes nothing to a merge.
func (c Candidate) Failed() bool { return !c.Success }

// Transport reports whether the model call itself failed.
func (c Candidate) Transport() bool { return c.Error == constants.CandidateErrorTransport }

func failed(index int, kind string, cause error) Candidate {
	return Candidate{
		ChunkIndex: index,
		Data:       map[string]any{},
		Error:      kind,
		Cause:      cause,
	}
}
