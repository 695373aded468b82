package scan

import (
	"sort"

	"scenetune/internal/param"
)

// LiteralStyle records the surface form of a numeric literal so a rewrite
// can reproduce it (a float written 300.0 stays dotted, 3e2 stays in
// exponent form).
type LiteralStyle struct {
	HasDot bool
	HasExp bool
}

// ValueSpan locates one record's value literal in the source text.
// Start/End are byte offsets. For Float, Int, and Bool the span covers the
// bare literal. For Text it covers the content between the quote
// delimiters, which stay untouched; Quote records the delimiter byte so
// replacement text can be escaped for it.
type ValueSpan struct {
	Name  string
	Start int
	End   int
	Kind  param.Kind
	Quote byte
	Style LiteralStyle
}

// Len returns the span's byte length.
func (s *ValueSpan) Len() int { return s.End - s.Start }

// SpanIndex maps record names to value spans. Offsets are valid only for
// the exact source snapshot they were computed from; any rewrite
// invalidates the index and returns a recomputed one.
type SpanIndex struct {
	spans map[string]*ValueSpan
}

// NewSpanIndex returns an empty index.
func NewSpanIndex() *SpanIndex {
	return &SpanIndex{spans: make(map[string]*ValueSpan)}
}

// Add inserts a span. Later adds for the same name overwrite.
func (idx *SpanIndex) Add(s *ValueSpan) {
	idx.spans[s.Name] = s
}

// Remove deletes the span for name, if present.
func (idx *SpanIndex) Remove(name string) {
	delete(idx.spans, name)
}

// Get returns the span for name.
func (idx *SpanIndex) Get(name string) (*ValueSpan, bool) {
	s, ok := idx.spans[name]
	return s, ok
}

// Len returns the number of indexed spans.
func (idx *SpanIndex) Len() int { return len(idx.spans) }

// Names returns record names ordered by span start offset.
func (idx *SpanIndex) Names() []string {
	out := make([]string, 0, len(idx.spans))
	for name := range idx.spans {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return idx.spans[out[i]].Start < idx.spans[out[j]].Start
	})
	return out
}
