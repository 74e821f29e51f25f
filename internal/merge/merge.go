// Package merge folds per-chunk candidates into one record.
//
// Candidates are applied in ascending chunk order. A scalar keeps the first
// non-nil value seen; maps merge recursively; lists are concatenated and
// deduplicated by structural equality keeping first-seen order. When the
// shapes disagree the existing value is kept.
package merge

import (
	"reflect"
	"sort"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
)

// Merge returns a new record; neither the candidates slice nor their data
// is modified and the result shares no maps or slices with them. Failed
// candidates are skipped.
func Merge(candidates []extract.Candidate) map[string]any {
	out := map[string]any{}
	for _, c := range sorted(candidates) {
		if !c.Success {
			continue
		}
		mergeInto(out, c.Data)
	}
	return out
}

// Contributing lists the chunk indexes of successful candidates in ascending order.
func Contributing(candidates []extract.Candidate) []int {
	out := make([]int, 0, len(candidates))
	for _, c := range sorted(candidates) {
		if c.Success {
			out = append(out, c.ChunkIndex)
		}
	}
	return out
}

func sorted(candidates []extract.Candidate) []extract.Candidate {
	cs := make([]extract.Candidate, len(candidates))
	copy(cs, candidates)
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].ChunkIndex < cs[j].ChunkIndex })
	return cs
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		cur, ok := dst[k]
		if !ok || cur == nil {
			dst[k] = clone(v)
			continue
		}
		dst[k] = mergeValue(cur, v)
	}
}

func mergeValue(cur, next any) any {
	if next == nil {
		return cur
	}
	switch c := cur.(type) {
	case map[string]any:
		n, ok := next.(map[string]any)
		if !ok {
			return cur
		}
		mergeInto(c, n)
		return c
	case []any:
		n, ok := next.([]any)
		if !ok {
			return cur
		}
		for _, it := range n {
			if !contains(c, it) {
				c = append(c, clone(it))
			}
		}
		return c
	default:
		return cur
	}
}

func contains(list []any, v any) bool {
	for _, it := range list {
		if reflect.DeepEqual(it, v) {
			return true
		}
	}
	return false
}

// clone deep-copies the JSON-shaped values a record holds.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = clone(x)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, x := range t {
			if !contains(out, x) {
				out = append(out, clone(x))
			}
		}
		return out
	default:
		return v
	}
}
