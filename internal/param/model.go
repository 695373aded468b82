package param

import (
	"fmt"
	"strconv"
)

// DefaultCategory is assigned to records with no category comment above them.
const DefaultCategory = "Uncategorized"

// ValidationError reports a rejected value for a named parameter. It is
// returned before any text is touched; the model and source stay unchanged.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("param: %s: %s", e.Name, e.Reason)
}

// Record is one parameter's typed state and metadata. Min and Max are
// optional; either may be present without the other. The model does not
// require Min <= Max — that is the script author's responsibility — but a
// committed value must satisfy whichever bounds exist.
type Record struct {
	Name        string
	Value       Value
	Type        Kind
	Unit        string
	Description string
	Min         *float64
	Max         *float64
}

// Validate checks a candidate value against the record's declared type and
// bounds. Int values are accepted for Float-declared records (they widen);
// every other cross-kind assignment is rejected. Bounds apply only to
// numeric kinds. Violations are reported, never clamped.
func (r *Record) Validate(v Value) error {
	switch r.Type {
	case Float:
		if v.Kind() != Float && v.Kind() != Int {
			return &ValidationError{r.Name, fmt.Sprintf("expected float, got %s", v.Kind())}
		}
	case Int:
		if v.Kind() != Int {
			return &ValidationError{r.Name, fmt.Sprintf("expected int, got %s", v.Kind())}
		}
	case Bool:
		if v.Kind() != Bool {
			return &ValidationError{r.Name, fmt.Sprintf("expected bool, got %s", v.Kind())}
		}
	case Text:
		if v.Kind() != Text {
			return &ValidationError{r.Name, fmt.Sprintf("expected str, got %s", v.Kind())}
		}
	}

	if !v.IsNumeric() {
		return nil
	}
	n := v.AsFloat()
	if r.Min != nil && n < *r.Min {
		return &ValidationError{r.Name, fmt.Sprintf("value %s below minimum %s",
			v, strconv.FormatFloat(*r.Min, 'g', -1, 64))}
	}
	if r.Max != nil && n > *r.Max {
		return &ValidationError{r.Name, fmt.Sprintf("value %s above maximum %s",
			v, strconv.FormatFloat(*r.Max, 'g', -1, 64))}
	}
	return nil
}

// Model maps parameter names to records and preserves the script's own
// ordering: categories in first-seen order, names in insertion order
// within each category. It is mutated only through the session commit path.
type Model struct {
	records    map[string]*Record
	categories []string
	byCategory map[string][]string
	categoryOf map[string]string
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		records:    make(map[string]*Record),
		byCategory: make(map[string][]string),
		categoryOf: make(map[string]string),
	}
}

// Add appends a record under the given category, registering the category
// on first use. Duplicate names are rejected.
func (m *Model) Add(rec *Record, category string) error {
	if category == "" {
		category = DefaultCategory
	}
	if _, exists := m.records[rec.Name]; exists {
		return fmt.Errorf("param: duplicate record %q", rec.Name)
	}
	m.records[rec.Name] = rec
	if _, seen := m.byCategory[category]; !seen {
		m.categories = append(m.categories, category)
	}
	m.byCategory[category] = append(m.byCategory[category], rec.Name)
	m.categoryOf[rec.Name] = category
	return nil
}

// Get returns the record for name.
func (m *Model) Get(name string) (*Record, bool) {
	r, ok := m.records[name]
	return r, ok
}

// SetValue stores a new value for name. It is called by the session after
// a successful rewrite; it does not re-validate.
func (m *Model) SetValue(name string, v Value) error {
	r, ok := m.records[name]
	if !ok {
		return fmt.Errorf("param: unknown record %q", name)
	}
	r.Value = v
	return nil
}

// Len returns the number of records.
func (m *Model) Len() int { return len(m.records) }

// Categories returns category labels in first-seen order.
func (m *Model) Categories() []string {
	out := make([]string, len(m.categories))
	copy(out, m.categories)
	return out
}

// CategoryOf returns the category label for a record.
func (m *Model) CategoryOf(name string) (string, bool) {
	c, ok := m.categoryOf[name]
	return c, ok
}

// InCategory returns record names under the category in insertion order.
func (m *Model) InCategory(category string) []string {
	names := m.byCategory[category]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// All returns every record ordered by category (first-seen) and then by
// insertion order within the category.
func (m *Model) All() []*Record {
	out := make([]*Record, 0, len(m.records))
	for _, cat := range m.categories {
		for _, name := range m.byCategory[cat] {
			out = append(out, m.records[name])
		}
	}
	return out
}

// Names returns record names in the same order as All.
func (m *Model) Names() []string {
	out := make([]string, 0, len(m.records))
	for _, cat := range m.categories {
		out = append(out, m.byCategory[cat]...)
	}
	return out
}
