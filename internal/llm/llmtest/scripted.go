// Package llmtest provides scripted llm.Completer implementations for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm"
)

// ErrUnavailable is the transport failure returned by Down and by rules
// built with Fail.
var ErrUnavailable = errors.New("llmtest: service unavailable")

type rule struct {
	match   string
	content string
	err     error
	delay   time.Duration
}

// Scripted answers each request by the first rule whose marker appears in
// the user prompt. Rules are matched on content, not call order, so the
// script behaves the same when chunks are extracted concurrently.
type Scripted struct {
	mu       sync.Mutex
	rules    []rule
	fallback *rule
	requests []llm.Request

	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
}

var _ llm.Completer = (*Scripted)(nil)

func New() *Scripted { return &Scripted{} }

// On answers prompts containing marker with content.
func (s *Scripted) On(marker, content string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{match: marker, content: content})
	return s
}

// Fail makes prompts containing marker fail with ErrUnavailable.
func (s *Scripted) Fail(marker string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{match: marker, err: ErrUnavailable})
	return s
}

// Slow delays answers to prompts containing marker.
func (s *Scripted) Slow(marker, content string, d time.Duration) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{match: marker, content: content, delay: d})
	return s
}

// Otherwise sets the answer for prompts no rule matches.
func (s *Scripted) Otherwise(content string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = &rule{content: content}
	return s
}

// Down returns a completer whose every call fails with ErrUnavailable.
func Down() *Scripted {
	return &Scripted{fallback: &rule{err: ErrUnavailable}}
}

func (s *Scripted) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.calls.Add(1)
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	r := s.fallback
	for i := range s.rules {
		if strings.Contains(req.User, s.rules[i].match) {
			r = &s.rules[i]
			break
		}
	}
	var picked rule
	if r != nil {
		picked = *r
	}
	s.mu.Unlock()

	if r == nil {
		return llm.Response{}, errors.New("llmtest: no rule matches prompt")
	}
	if picked.delay > 0 {
		select {
		case <-time.After(picked.delay):
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}
	if picked.err != nil {
		return llm.Response{}, picked.err
	}
	return llm.Response{Content: picked.content, Model: "scripted"}, nil
}

// Calls is the number of Complete invocations so far.
func (s *Scripted) Calls() int { return int(s.calls.Load()) }

// PeakConcurrency is the highest number of overlapping Complete calls seen.
func (s *Scripted) PeakConcurrency() int { return int(s.peak.Load()) }

// Requests returns a copy of every request received.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Request, len(s.requests))
	copy(out, s.requests)
	return out
}
