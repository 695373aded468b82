package param

import (
	"errors"
	"testing"
)

func TestKindFromLiteral(t *testing.T) {
	t.Parallel()
	tests := []struct {
		lit  string
		want Kind
		ok   bool
	}{
		{"float", Float, true},
		{"int", Int, true},
		{"bool", Bool, true},
		{"str", Text, true},
		{"string", 0, false},
		{"Float", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := KindFromLiteral(tt.lit)
		if ok != tt.ok {
			t.Errorf("KindFromLiteral(%q) ok = %v, want %v", tt.lit, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("KindFromLiteral(%q) = %v, want %v", tt.lit, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		v    Value
		want string
	}{
		{FloatValue(300), "300"},
		{FloatValue(275.5), "275.5"},
		{IntValue(-3), "-3"},
		{BoolValue(true), "True"},
		{BoolValue(false), "False"},
		{TextValue("sine"), "sine"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	t.Parallel()
	if !FloatValue(1.5).Equal(FloatValue(1.5)) {
		t.Error("equal floats reported unequal")
	}
	if FloatValue(1).Equal(IntValue(1)) {
		t.Error("cross-kind values reported equal")
	}
	if TextValue("a").Equal(TextValue("b")) {
		t.Error("different texts reported equal")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind    Kind
		in      string
		want    Value
		wantErr bool
	}{
		{Float, "275.5", FloatValue(275.5), false},
		{Float, "3e2", FloatValue(300), false},
		{Float, "fast", Value{}, true},
		{Int, "42", IntValue(42), false},
		{Int, "4.2", Value{}, true},
		{Bool, "True", BoolValue(true), false},
		{Bool, "false", BoolValue(false), false},
		{Bool, "yes", Value{}, true},
		{Text, "sine wave", TextValue("sine wave"), false},
	}
	for _, tt := range tests {
		got, err := Parse(tt.kind, tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%v, %q) error = %v, wantErr %v", tt.kind, tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && !got.Equal(tt.want) {
			t.Errorf("Parse(%v, %q) = %v, want %v", tt.kind, tt.in, got, tt.want)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	t.Parallel()
	min, max := 0.0, 1000.0
	rec := &Record{Name: "wave_speed", Type: Float, Min: &min, Max: &max}

	if err := rec.Validate(FloatValue(500)); err != nil {
		t.Fatalf("in-range float rejected: %v", err)
	}
	// Int widens to a float-declared record.
	if err := rec.Validate(IntValue(500)); err != nil {
		t.Fatalf("int for float record rejected: %v", err)
	}
	if err := rec.Validate(FloatValue(0)); err != nil {
		t.Fatalf("value at minimum rejected: %v", err)
	}
	if err := rec.Validate(FloatValue(1000)); err != nil {
		t.Fatalf("value at maximum rejected: %v", err)
	}

	var verr *ValidationError
	if err := rec.Validate(FloatValue(-1)); !errors.As(err, &verr) {
		t.Fatalf("below-minimum value error = %v, want *ValidationError", err)
	}
	if err := rec.Validate(FloatValue(1500)); err == nil {
		t.Fatal("above-maximum value accepted")
	}
	if err := rec.Validate(TextValue("fast")); err == nil {
		t.Fatal("text for float record accepted")
	}
}

func TestRecordValidateKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rec     Record
		v       Value
		wantErr bool
	}{
		{Record{Name: "n", Type: Int}, IntValue(3), false},
		{Record{Name: "n", Type: Int}, FloatValue(3), true}, // no narrowing
		{Record{Name: "b", Type: Bool}, BoolValue(true), false},
		{Record{Name: "b", Type: Bool}, IntValue(1), true},
		{Record{Name: "s", Type: Text}, TextValue("x"), false},
		{Record{Name: "s", Type: Text}, BoolValue(false), true},
	}
	for _, tt := range tests {
		err := tt.rec.Validate(tt.v)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v on %s record) error = %v, wantErr %v",
				tt.v.Kind(), tt.rec.Type, err, tt.wantErr)
		}
	}
}

func TestRecordValidateTextIgnoresBounds(t *testing.T) {
	t.Parallel()
	min := 10.0
	rec := &Record{Name: "label", Type: Text, Min: &min}
	if err := rec.Validate(TextValue("hi")); err != nil {
		t.Fatalf("bounds applied to text value: %v", err)
	}
}

func TestModelOrdering(t *testing.T) {
	t.Parallel()
	m := NewModel()
	add := func(name, cat string) {
		t.Helper()
		if err := m.Add(&Record{Name: name, Type: Float}, cat); err != nil {
			t.Fatalf("Add(%q): %v", name, err)
		}
	}
	add("wave_speed", "Physical Parameters")
	add("frequency", "Physical Parameters")
	add("color", "Display Settings")
	add("loose_end", "")

	wantCats := []string{"Physical Parameters", "Display Settings", DefaultCategory}
	gotCats := m.Categories()
	if len(gotCats) != len(wantCats) {
		t.Fatalf("Categories() = %v, want %v", gotCats, wantCats)
	}
	for i := range wantCats {
		if gotCats[i] != wantCats[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, gotCats[i], wantCats[i])
		}
	}

	wantNames := []string{"wave_speed", "frequency", "color", "loose_end"}
	gotNames := m.Names()
	if len(gotNames) != len(wantNames) {
		t.Fatalf("Names() = %v, want %v", gotNames, wantNames)
	}
	for i := range wantNames {
		if gotNames[i] != wantNames[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, gotNames[i], wantNames[i])
		}
	}

	if cat, _ := m.CategoryOf("loose_end"); cat != DefaultCategory {
		t.Errorf("CategoryOf(loose_end) = %q, want %q", cat, DefaultCategory)
	}
}

func TestModelAddDuplicate(t *testing.T) {
	t.Parallel()
	m := NewModel()
	if err := m.Add(&Record{Name: "x", Type: Int}, ""); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := m.Add(&Record{Name: "x", Type: Int}, ""); err == nil {
		t.Fatal("duplicate Add accepted")
	}
}

func TestModelSetValue(t *testing.T) {
	t.Parallel()
	m := NewModel()
	if err := m.Add(&Record{Name: "x", Type: Int, Value: IntValue(1)}, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.SetValue("x", IntValue(2)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	rec, _ := m.Get("x")
	if !rec.Value.Equal(IntValue(2)) {
		t.Errorf("value after SetValue = %v, want 2", rec.Value)
	}
	if err := m.SetValue("missing", IntValue(0)); err == nil {
		t.Fatal("SetValue on unknown name accepted")
	}
}
