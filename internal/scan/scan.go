// Package scan extracts the PARAMETERS block from a manim-gl scene script
// without running a Python parser. It walks the block's fixed shallow shape
// directly over the source bytes, producing a typed model, a byte-span
// index for each value literal, and per-entry warnings for records it had
// to drop. Offsets in the returned index refer to the exact source snapshot
// given to Scan.
package scan

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"scenetune/internal/param"
)

// Fatal scan errors. Per-entry problems are reported as Warnings instead
// so the rest of the file stays usable.
var (
	ErrBlockNotFound     = errors.New("scan: PARAMETERS block not found")
	ErrMultipleBlocks    = errors.New("scan: multiple top-level PARAMETERS blocks")
	ErrUnterminatedBlock = errors.New("scan: unterminated PARAMETERS block")
)

// blockRe matches a top-level (column zero) PARAMETERS assignment whose
// value opens a dict on the same line.
var blockRe = regexp.MustCompile(`(?m)^PARAMETERS\s*=\s*\{`)

// categoryRe matches a comment line that labels a parameter category:
// one or more words followed by "Parameter(s)" or "Setting(s)".
var categoryRe = regexp.MustCompile(`(?i)^#\s*(\w[\w/&-]*(?:\s+[\w/&-]+)*\s+(?:parameters?|settings?))\s*$`)

// Warning reports a single dropped entry. The scan itself still succeeds.
type Warning struct {
	Name   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Name, w.Reason)
}

// Result is a successful scan: the typed model, the value-literal span
// index, and warnings for entries excluded from both.
type Result struct {
	Model    *param.Model
	Spans    *SpanIndex
	Warnings []Warning
}

// Scan locates the PARAMETERS block and extracts every well-formed record.
// It fails with ErrBlockNotFound or ErrMultipleBlocks when the block is
// absent or ambiguous; malformed entries are dropped with a Warning.
// Duplicate names are ambiguous for span-based rewriting, so every
// occurrence of a duplicated name is dropped.
func Scan(source []byte) (*Result, error) {
	masked := maskLiterals(source)
	var locs [][]int
	for _, loc := range blockRe.FindAllIndex(source, -1) {
		// A PARAMETERS line quoted inside a docstring is not a block.
		if masked[loc[0]] {
			continue
		}
		locs = append(locs, loc)
	}
	if len(locs) == 0 {
		return nil, ErrBlockNotFound
	}
	if len(locs) > 1 {
		return nil, ErrMultipleBlocks
	}

	s := &scanner{src: source, pos: locs[0][1] - 1}

	entries, warnings, err := s.scanBlock()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.name]++
	}

	model := param.NewModel()
	idx := NewSpanIndex()
	for _, e := range entries {
		if counts[e.name] > 1 {
			warnings = append(warnings, Warning{e.name, "duplicate definition"})
			continue
		}
		if err := model.Add(e.record, e.category); err != nil {
			return nil, err
		}
		idx.Add(e.span)
	}

	return &Result{Model: model, Spans: idx, Warnings: warnings}, nil
}

// entry is one successfully parsed record plus its placement metadata.
type entry struct {
	name     string
	record   *param.Record
	span     *ValueSpan
	category string
}

// maskLiterals marks every byte that sits inside a string literal or a
// comment, so the block locator only considers matches in actual code.
// Single- and triple-quoted strings of both quote styles are tracked;
// an unterminated single-quoted string masks to end of line only.
func maskLiterals(src []byte) []bool {
	mask := make([]bool, len(src))
	i := 0
	for i < len(src) {
		switch c := src[i]; c {
		case '#':
			for i < len(src) && src[i] != '\n' {
				mask[i] = true
				i++
			}
		case '\'', '"':
			q := c
			triple := i+2 < len(src) && src[i+1] == q && src[i+2] == q
			width := 1
			if triple {
				width = 3
			}
			for n := 0; n < width; n++ {
				mask[i] = true
				i++
			}
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					mask[i], mask[i+1] = true, true
					i += 2
					continue
				}
				if !triple && src[i] == '\n' {
					break
				}
				if src[i] == q && (!triple || (i+2 < len(src) && src[i+1] == q && src[i+2] == q)) {
					for n := 0; n < width && i < len(src); n++ {
						mask[i] = true
						i++
					}
					break
				}
				mask[i] = true
				i++
			}
		default:
			i++
		}
	}
	return mask
}

type scanner struct {
	src      []byte
	pos      int
	category string
}

// skipBlockTrivia advances past whitespace and comments between records,
// tracking category labels as it goes. A comment line whose only content is
// a label matching categoryRe sets the category for the records that follow,
// until the next label; when several labels stack, the nearest one wins.
func (s *scanner) skipBlockTrivia() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '#':
			start := s.pos
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
			if s.ownLine(start) {
				text := strings.TrimSpace(string(s.src[start:s.pos]))
				if m := categoryRe.FindStringSubmatch(text); m != nil {
					s.category = m[1]
				}
			}
		default:
			return
		}
	}
}

// ownLine reports whether only whitespace precedes off on its line, i.e.
// the comment starting there is the whole line rather than a trailer.
func (s *scanner) ownLine(off int) bool {
	for i := off - 1; i >= 0; i-- {
		switch s.src[i] {
		case '\n':
			return true
		case ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// scanBlock parses the dict body starting at the opening brace. Entry-level
// problems become warnings; structural breakage (unbalanced braces, a
// non-string key) is fatal.
func (s *scanner) scanBlock() ([]entry, []Warning, error) {
	s.pos++ // opening brace
	var entries []entry
	var warns []Warning

	for {
		s.skipBlockTrivia()
		if s.pos >= len(s.src) {
			return nil, nil, ErrUnterminatedBlock
		}
		if s.src[s.pos] == '}' {
			s.pos++
			return entries, warns, nil
		}

		name, _, _, _, err := s.scanString()
		if err != nil {
			return nil, nil, fmt.Errorf("scan: expected record name at offset %d: %w", s.pos, err)
		}
		category := s.category

		s.skipTrivia()
		if !s.consume(':') {
			return nil, nil, fmt.Errorf("scan: expected ':' after record name %q", name)
		}
		s.skipTrivia()

		if s.pos < len(s.src) && s.src[s.pos] == '{' {
			recStart := s.pos
			rec, span, perr := s.scanRecord(name)
			if perr != nil {
				end, serr := s.skipBalanced(recStart)
				if serr != nil {
					return nil, nil, serr
				}
				s.pos = end
				warns = append(warns, Warning{name, perr.Error()})
			} else {
				entries = append(entries, entry{name, rec, span, category})
			}
		} else {
			if _, err := s.scanLiteral(); err != nil {
				return nil, nil, err
			}
			warns = append(warns, Warning{name, "record is not a mapping"})
		}

		s.skipTrivia()
		s.consume(',')
	}
}

// scanRecord parses one record dict. The cursor sits on the opening brace.
// Any returned error marks the whole record malformed; the caller recovers
// by skipping to the record's closing brace.
func (s *scanner) scanRecord(name string) (*param.Record, *ValueSpan, error) {
	s.pos++ // opening brace
	rec := &param.Record{Name: name}
	var valueLit *literal
	var haveType bool

	for {
		s.skipTrivia()
		if s.pos >= len(s.src) {
			return nil, nil, errors.New("unterminated record")
		}
		if s.src[s.pos] == '}' {
			s.pos++
			break
		}

		field, _, _, _, err := s.scanString()
		if err != nil {
			return nil, nil, fmt.Errorf("expected field name: %v", err)
		}
		s.skipTrivia()
		if !s.consume(':') {
			return nil, nil, fmt.Errorf("expected ':' after field %q", field)
		}
		s.skipTrivia()

		lit, err := s.scanLiteral()
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %v", field, err)
		}

		switch field {
		case "value":
			valueLit = lit
		case "type":
			if lit.kind != litName {
				return nil, nil, errors.New("type is not a type literal")
			}
			k, ok := param.KindFromLiteral(lit.ident)
			if !ok {
				return nil, nil, fmt.Errorf("unsupported type %q", lit.ident)
			}
			rec.Type = k
			haveType = true
		case "unit":
			if lit.kind != litString {
				return nil, nil, errors.New("unit is not a string")
			}
			rec.Unit = lit.text
		case "description":
			if lit.kind != litString {
				return nil, nil, errors.New("description is not a string")
			}
			rec.Description = lit.text
		case "min", "max":
			if lit.kind != litNumber {
				return nil, nil, fmt.Errorf("%s is not numeric", field)
			}
			f := lit.f
			if field == "min" {
				rec.Min = &f
			} else {
				rec.Max = &f
			}
		default:
			// Unrecognized fields are ignored for forward compatibility.
		}

		s.skipTrivia()
		s.consume(',')
	}

	if valueLit == nil {
		return nil, nil, errors.New("missing value field")
	}
	if !haveType {
		return nil, nil, errors.New("missing type field")
	}

	span, value, err := spanFor(name, rec.Type, valueLit)
	if err != nil {
		return nil, nil, err
	}
	rec.Value = value
	return rec, span, nil
}

// spanFor converts a parsed value literal into the record's Value and the
// span a later rewrite will replace. The declared type decides how the
// literal is interpreted; a literal the type cannot represent makes the
// record malformed.
func spanFor(name string, typ param.Kind, lit *literal) (*ValueSpan, param.Value, error) {
	span := &ValueSpan{Name: name, Kind: typ, Start: lit.start, End: lit.end}
	switch typ {
	case param.Float:
		if lit.kind != litNumber {
			return nil, param.Value{}, errors.New("value is not a float")
		}
		span.Style = LiteralStyle{HasDot: lit.hasDot, HasExp: lit.hasExp}
		return span, param.FloatValue(lit.f), nil
	case param.Int:
		if lit.kind != litNumber || lit.hasDot || lit.hasExp {
			return nil, param.Value{}, errors.New("value is not an int")
		}
		return span, param.IntValue(lit.i), nil
	case param.Bool:
		if lit.kind != litBool {
			return nil, param.Value{}, errors.New("value is not a bool")
		}
		return span, param.BoolValue(lit.b), nil
	case param.Text:
		if lit.kind != litString {
			return nil, param.Value{}, errors.New("value is not a string")
		}
		span.Start = lit.contentStart
		span.End = lit.contentEnd
		span.Quote = lit.quote
		return span, param.TextValue(lit.text), nil
	}
	return nil, param.Value{}, fmt.Errorf("unsupported type %v", typ)
}

type litKind int

const (
	litNumber litKind = iota
	litString
	litBool
	litNone
	litName
	litContainer
)

// literal is one scanned value token with enough surface detail to
// reproduce its style later.
type literal struct {
	kind       litKind
	start, end int

	// numbers
	f              float64
	i              int64
	hasDot, hasExp bool

	// strings
	text                     string
	quote                    byte
	contentStart, contentEnd int

	// booleans and bare identifiers
	b     bool
	ident string
}

// scanLiteral reads one field value: a number, string, boolean, None, a
// bare identifier (type literals), or a bracketed container, which is
// skipped wholesale so unrecognized fields cannot break the scan.
func (s *scanner) scanLiteral() (*literal, error) {
	if s.pos >= len(s.src) {
		return nil, errors.New("unexpected end of input")
	}
	c := s.src[s.pos]
	switch {
	case c == '"' || c == '\'':
		start := s.pos
		text, quote, cs, ce, err := s.scanString()
		if err != nil {
			return nil, err
		}
		return &literal{kind: litString, start: start, end: s.pos,
			text: text, quote: quote, contentStart: cs, contentEnd: ce}, nil

	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return s.scanNumber()

	case isIdentStart(c):
		start := s.pos
		for s.pos < len(s.src) && isIdentByte(s.src[s.pos]) {
			s.pos++
		}
		ident := string(s.src[start:s.pos])
		lit := &literal{start: start, end: s.pos, ident: ident}
		switch ident {
		case "True":
			lit.kind, lit.b = litBool, true
		case "False":
			lit.kind, lit.b = litBool, false
		case "None":
			lit.kind = litNone
		default:
			lit.kind = litName
		}
		return lit, nil

	case c == '[' || c == '(' || c == '{':
		start := s.pos
		end, err := s.skipBalanced(start)
		if err != nil {
			return nil, err
		}
		s.pos = end
		return &literal{kind: litContainer, start: start, end: end}, nil
	}
	return nil, fmt.Errorf("unexpected byte %q", c)
}

// scanNumber reads an optionally signed int or float literal, recording
// whether the surface form used a dot or an exponent.
func (s *scanner) scanNumber() (*literal, error) {
	start := s.pos
	i := s.pos
	if i < len(s.src) && (s.src[i] == '-' || s.src[i] == '+') {
		i++
	}
	digits := 0
	for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
		i++
		digits++
	}
	lit := &literal{kind: litNumber, start: start}
	if i < len(s.src) && s.src[i] == '.' {
		lit.hasDot = true
		i++
		for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return nil, errors.New("malformed number")
	}
	if i < len(s.src) && (s.src[i] == 'e' || s.src[i] == 'E') {
		j := i + 1
		if j < len(s.src) && (s.src[j] == '-' || s.src[j] == '+') {
			j++
		}
		expDigits := 0
		for j < len(s.src) && s.src[j] >= '0' && s.src[j] <= '9' {
			j++
			expDigits++
		}
		if expDigits == 0 {
			return nil, errors.New("malformed exponent")
		}
		lit.hasExp = true
		i = j
	}
	lit.end = i
	text := string(s.src[start:i])
	s.pos = i

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed number %q", text)
	}
	lit.f = f
	if !lit.hasDot && !lit.hasExp {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int literal %q out of range", text)
		}
		lit.i = n
	}
	return lit, nil
}

// scanString reads a single- or double-quoted string starting at the
// cursor, handling backslash escapes. It returns the unescaped text, the
// quote byte, and the byte offsets of the content between the quotes.
func (s *scanner) scanString() (text string, quote byte, contentStart, contentEnd int, err error) {
	if s.pos >= len(s.src) || (s.src[s.pos] != '"' && s.src[s.pos] != '\'') {
		return "", 0, 0, 0, errors.New("expected string literal")
	}
	q := s.src[s.pos]
	contentStart = s.pos + 1

	var b strings.Builder
	i := contentStart
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case c == '\\' && i+1 < len(s.src):
			b.WriteByte(unescape(s.src[i+1]))
			i += 2
		case c == q:
			s.pos = i + 1
			return b.String(), q, contentStart, i, nil
		case c == '\n':
			return "", 0, 0, 0, errors.New("unterminated string")
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, 0, 0, errors.New("unterminated string")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

// skipBalanced scans from an opening bracket at from to its matching close,
// honoring nested brackets, strings, and comments. It returns the offset
// one past the close.
func (s *scanner) skipBalanced(from int) (int, error) {
	depth := 0
	i := from
	for i < len(s.src) {
		c := s.src[i]
		switch c {
		case '#':
			for i < len(s.src) && s.src[i] != '\n' {
				i++
			}
		case '"', '\'':
			q := c
			i++
			for i < len(s.src) && s.src[i] != q {
				if s.src[i] == '\\' {
					i++
				}
				i++
			}
			i++
		case '{', '[', '(':
			depth++
			i++
		case '}', ']', ')':
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
		default:
			i++
		}
	}
	return 0, ErrUnterminatedBlock
}

// skipTrivia advances past whitespace and comments.
func (s *scanner) skipTrivia() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '#':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

// consume advances past c if it is the next byte.
func (s *scanner) consume(c byte) bool {
	if s.pos < len(s.src) && s.src[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
