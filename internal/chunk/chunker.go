// Package chunk splits long document text into bounded, overlapping windows
// that prefer sentence and word boundaries.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
)

const (
	DefaultMaxChars = 100000
	DefaultOverlap  = 1000
)

// Chunk is one window of the source text. Offsets are byte offsets into the
// source and describe the window before trimming; Text is trimmed.
type Chunk struct {
	SequenceIndex int
	Text          string
	StartOffset   int
	EndOffset     int
	IsFinal       bool
}

// Len is the size in bytes of the source window the chunk was cut from.
func (c Chunk) Len() int { return c.EndOffset - c.StartOffset }

// Split cuts text into chunks of at most maxChars characters. Consecutive
// windows share up to overlap characters. Every character of text falls
// inside at least one window and StartOffset strictly increases from chunk
// to chunk. Windows always start and end on character boundaries.
func Split(text string, maxChars, overlap int) ([]Chunk, error) {
	if maxChars <= 0 {
		return nil, common.ChunkingError(fmt.Sprintf("max_chars must be > 0, got %d", maxChars))
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, common.ChunkingError(fmt.Sprintf("overlap must be in [0, %d), got %d", maxChars, overlap))
	}

	n := utf8.RuneCountInString(text)
	if n <= maxChars {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, nil
		}
		return []Chunk{{SequenceIndex: 0, Text: trimmed, StartOffset: 0, EndOffset: len(text), IsFinal: true}}, nil
	}

	// offs[i] is the byte offset of character i; offs[n] == len(text).
	offs := make([]int, 0, n+1)
	for i := range text {
		offs = append(offs, i)
	}
	offs = append(offs, len(text))

	// start strictly increases, so n+1 iterations is a hard ceiling.
	guard := n + 1
	chunks := make([]Chunk, 0, ExpectedWindows(n, maxChars, overlap))

	start := 0
	for iter := 0; start < n; iter++ {
		if iter >= guard {
			return nil, common.ChunkingError(fmt.Sprintf("no progress after %d iterations at character %d", iter, start))
		}

		end := start + maxChars
		if end >= n {
			end = n
		} else {
			end = boundary(text, offs, start, end, maxChars)
		}

		if piece := strings.TrimSpace(text[offs[start]:offs[end]]); piece != "" {
			chunks = append(chunks, Chunk{
				SequenceIndex: len(chunks),
				Text:          piece,
				StartOffset:   offs[start],
				EndOffset:     offs[end],
			})
		}

		if end == n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	if len(chunks) > 0 {
		chunks[len(chunks)-1].IsFinal = true
	}
	return chunks, nil
}

// boundary picks the cut point, as a character index, for a non-final
// window [start, end). Separators are ASCII, so a character is '.' or ' '
// exactly when its first byte is.
func boundary(text string, offs []int, start, end, maxChars int) int {
	at := func(i int) byte { return text[offs[i]] }

	// sentence end in the second half of the window
	for i := end - 2; i >= start+maxChars/2; i-- {
		if at(i) == '.' && at(i+1) == ' ' {
			return i + 1
		}
	}

	// last space in (start, end]
	for i := end; i > start; i-- {
		if at(i) == ' ' {
			return i
		}
	}

	return end
}

// ExpectedWindows is the number of windows a text of n characters needs
// when every cut is a hard cut: ceil(n/(maxChars-overlap)) + 1 bounds it.
func ExpectedWindows(n, maxChars, overlap int) int {
	step := maxChars - overlap
	if step <= 0 || n <= 0 {
		return 1
	}
	return (n+step-1)/step + 1
}
