// Package rewrite applies batched value edits back into the original scene
// script text. Only the targeted value spans change; every byte outside
// them is copied verbatim, so comments, whitespace, and formatting survive
// each edit untouched. A batch is all-or-nothing: validation of every edit
// happens before a single byte moves.
package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scenetune/internal/param"
	"scenetune/internal/scan"
)

var (
	// ErrUnknownParameter is returned when an edit names a record absent
	// from the span index.
	ErrUnknownParameter = errors.New("rewrite: unknown parameter")

	// ErrSpanConflict is returned when spans overlap, fall outside the
	// source, or a batch edits the same record twice. The source is
	// returned unchanged.
	ErrSpanConflict = errors.New("rewrite: span conflict")
)

// Edit is one requested value change.
type Edit struct {
	Name  string
	Value param.Value
}

// patch pairs a span with the serialized literal that replaces it.
type patch struct {
	span *scan.ValueSpan
	text string
}

// Apply validates edits against the model, replaces each edited value span
// with the serialized new literal, and returns the new text plus a span
// index recomputed for it. The inputs are never mutated; on any error the
// original source is the one to keep using. An empty edit list returns the
// source bytes unchanged.
func Apply(source []byte, idx *scan.SpanIndex, model *param.Model, edits []Edit) ([]byte, *scan.SpanIndex, error) {
	if len(edits) == 0 {
		return source, idx, nil
	}

	// Validate the whole batch before touching anything.
	patches := make([]patch, 0, len(edits))
	seen := make(map[string]bool, len(edits))
	for _, e := range edits {
		if seen[e.Name] {
			return nil, nil, fmt.Errorf("%w: %q edited twice in one batch", ErrSpanConflict, e.Name)
		}
		seen[e.Name] = true

		rec, ok := model.Get(e.Name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownParameter, e.Name)
		}
		if err := rec.Validate(e.Value); err != nil {
			return nil, nil, err
		}
		span, ok := idx.Get(e.Name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownParameter, e.Name)
		}
		if span.Start < 0 || span.End > len(source) || span.Start > span.End {
			return nil, nil, fmt.Errorf("%w: %q span [%d,%d) outside source", ErrSpanConflict, e.Name, span.Start, span.End)
		}
		patches = append(patches, patch{span: span, text: serialize(e.Value, span)})
	}

	sort.Slice(patches, func(i, j int) bool {
		return patches[i].span.Start < patches[j].span.Start
	})
	for i := 1; i < len(patches); i++ {
		if patches[i].span.Start < patches[i-1].span.End {
			return nil, nil, fmt.Errorf("%w: %q overlaps %q",
				ErrSpanConflict, patches[i-1].span.Name, patches[i].span.Name)
		}
	}

	// Splice in descending start order so earlier offsets stay valid while
	// replacement lengths differ from the original spans.
	out := make([]byte, len(source))
	copy(out, source)
	for i := len(patches) - 1; i >= 0; i-- {
		p := patches[i]
		rest := append([]byte(p.text), out[p.span.End:]...)
		out = append(out[:p.span.Start], rest...)
	}

	return out, shiftIndex(idx, patches), nil
}

// shiftIndex recomputes every span for the rewritten text. Unedited spans
// shift by the cumulative length delta of the edits applied before them;
// edited spans take the length and surface style of the new literal.
func shiftIndex(idx *scan.SpanIndex, patches []patch) *scan.SpanIndex {
	edited := make(map[string]string, len(patches))
	for _, p := range patches {
		edited[p.span.Name] = p.text
	}

	next := scan.NewSpanIndex()
	delta := 0
	for _, name := range idx.Names() {
		old, _ := idx.Get(name)
		s := *old // copy; the old index must stay valid for its own snapshot
		s.Start = old.Start + delta
		if text, ok := edited[name]; ok {
			s.End = s.Start + len(text)
			if s.Kind == param.Float {
				s.Style = scan.LiteralStyle{
					HasDot: strings.Contains(text, "."),
					HasExp: strings.ContainsAny(text, "eE"),
				}
			}
			delta += len(text) - old.Len()
		} else {
			s.End = old.End + delta
		}
		next.Add(&s)
	}
	return next
}

// serialize renders a validated value as literal text matching the
// original literal's surface style where the span recorded one, falling
// back to the canonical minimal form otherwise.
func serialize(v param.Value, span *scan.ValueSpan) string {
	switch span.Kind {
	case param.Float:
		f := v.AsFloat()
		if span.Style.HasExp {
			return strconv.FormatFloat(f, 'e', -1, 64)
		}
		text := strconv.FormatFloat(f, 'f', -1, 64)
		if span.Style.HasDot && !strings.Contains(text, ".") {
			text += ".0"
		}
		return text
	case param.Int:
		return strconv.FormatInt(v.Int(), 10)
	case param.Bool:
		if v.Bool() {
			return "True"
		}
		return "False"
	case param.Text:
		return escapeText(v.Text(), span.Quote)
	}
	return v.String()
}

// escapeText escapes replacement text for insertion between the original
// quote delimiters, which the rewrite never touches.
func escapeText(s string, quote byte) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case quote:
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
