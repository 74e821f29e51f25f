package llm

import "context"

// Generation defaults: low variance, bounded output.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 4096
)

// Request is one bounded call to a chat model.
type Request struct {
	System      string
	User        string
	Temperature *float64 // nil uses the backend's configured temperature; 0 is honored
	MaxTokens   int
	JSONMode    bool // ask the backend for a JSON object response
}

// Temperature returns a pointer to t for Request and config fields.
func Temperature(t float64) *float64 { return &t }

// Response is the raw text produced by the model plus accounting.
type Response struct {
	Content     string
	Model       string
	TotalTokens int64
}

// Completer is the only thing the extraction engine needs from a model
// backend. Implementations must be safe for concurrent use and keep no
// per-document state. Any returned error is treated as a transport failure.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (Response, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
