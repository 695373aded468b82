package preset

import (
	"path/filepath"
	"testing"

	"scenetune/internal/param"
)

func sampleModel(t *testing.T) *param.Model {
	t.Helper()
	m := param.NewModel()
	add := func(rec *param.Record) {
		t.Helper()
		if err := m.Add(rec, "Wave Parameters"); err != nil {
			t.Fatal(err)
		}
	}
	add(&param.Record{Name: "wave_speed", Type: param.Float, Value: param.FloatValue(300)})
	add(&param.Record{Name: "cycles", Type: param.Int, Value: param.IntValue(4)})
	add(&param.Record{Name: "show_grid", Type: param.Bool, Value: param.BoolValue(true)})
	add(&param.Record{Name: "label", Type: param.Text, Value: param.TextValue("standing wave")})
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	m := sampleModel(t)

	snap := FromModel("fast preview", "wave_demo.py", m)
	path, err := Save(dir, snap)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(dir, "wave_demo_fast_preview.preset.toml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	loaded, err := Load(dir, "wave_demo.py", "fast preview")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "fast preview" || loaded.Script != "wave_demo.py" {
		t.Errorf("provenance = %q / %q", loaded.Name, loaded.Script)
	}

	values, skipped, err := loaded.Resolve(m)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	want := map[string]param.Value{
		"wave_speed": param.FloatValue(300),
		"cycles":     param.IntValue(4),
		"show_grid":  param.BoolValue(true),
		"label":      param.TextValue("standing wave"),
	}
	for name, w := range want {
		got, ok := values[name]
		if !ok {
			t.Errorf("missing %s", name)
			continue
		}
		if !got.Equal(w) {
			t.Errorf("%s = %v, want %v", name, got, w)
		}
	}
}

func TestResolveSkipsUnknownNames(t *testing.T) {
	t.Parallel()
	m := sampleModel(t)
	snap := &Snapshot{Values: map[string]any{
		"cycles":  int64(8),
		"removed": 1.0,
		"extinct": "gone",
	}}

	values, skipped, err := snap.Resolve(m)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(values) != 1 {
		t.Errorf("values = %v, want only cycles", values)
	}
	if len(skipped) != 2 || skipped[0] != "extinct" || skipped[1] != "removed" {
		t.Errorf("skipped = %v, want [extinct removed]", skipped)
	}
}

func TestResolveWidensIntToFloat(t *testing.T) {
	t.Parallel()
	m := sampleModel(t)
	// TOML decodes whole numbers as int64 even when the record is a float.
	snap := &Snapshot{Values: map[string]any{"wave_speed": int64(500)}}

	values, _, err := snap.Resolve(m)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !values["wave_speed"].Equal(param.FloatValue(500)) {
		t.Errorf("wave_speed = %v, want float 500", values["wave_speed"])
	}
}

func TestResolveRejectsWrongKind(t *testing.T) {
	t.Parallel()
	m := sampleModel(t)
	snap := &Snapshot{Values: map[string]any{"cycles": "many"}}
	if _, _, err := snap.Resolve(m); err == nil {
		t.Fatal("string for int record accepted")
	}
}

func TestList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	m := sampleModel(t)

	for _, name := range []string{"draft", "final", "fast preview"} {
		if _, err := Save(dir, FromModel(name, "wave_demo.py", m)); err != nil {
			t.Fatalf("Save(%q): %v", name, err)
		}
	}
	// Presets for another script must not show up.
	if _, err := Save(dir, FromModel("other", "pendulum.py", m)); err != nil {
		t.Fatal(err)
	}

	names, err := List(dir, "wave_demo.py")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"draft", "fast_preview", "final"}
	if len(names) != len(want) {
		t.Fatalf("List = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	m := sampleModel(t)

	for _, name := range []string{"draft", "final"} {
		if _, err := Save(dir, FromModel(name, "wave_demo.py", m)); err != nil {
			t.Fatalf("Save(%q): %v", name, err)
		}
	}

	if err := Delete(dir, "wave_demo.py", "draft"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, err := List(dir, "wave_demo.py")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "final" {
		t.Errorf("List = %v, want [final]", names)
	}
	if _, err := Load(dir, "wave_demo.py", "draft"); err == nil {
		t.Error("deleted preset still loads")
	}
}

func TestDeleteMissing(t *testing.T) {
	t.Parallel()
	if err := Delete(t.TempDir(), "wave_demo.py", "nope"); err == nil {
		t.Fatal("deleting a missing preset succeeded")
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()
	if _, err := Load(t.TempDir(), "wave_demo.py", "nope"); err == nil {
		t.Fatal("loading a missing preset succeeded")
	}
}
