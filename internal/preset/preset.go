// Package preset saves and loads named parameter snapshots as TOML files.
// A preset is a flat name-to-value mapping plus provenance (which script,
// when); applying one is just a batched commit against the current model.
// Files live next to the script by default, named {stem}_{preset}.preset.toml.
package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"scenetune/internal/param"
)

const fileSuffix = ".preset.toml"

// Snapshot is one saved preset: provenance metadata plus the flat
// name-to-value mapping.
type Snapshot struct {
	Name    string         `toml:"name"`
	Created time.Time      `toml:"created"`
	Script  string         `toml:"script"`
	Values  map[string]any `toml:"values"`
}

// FromModel captures the model's current values as a snapshot.
func FromModel(name, script string, m *param.Model) Snapshot {
	values := make(map[string]any, m.Len())
	for _, rec := range m.All() {
		switch rec.Value.Kind() {
		case param.Float:
			values[rec.Name] = rec.Value.Float()
		case param.Int:
			values[rec.Name] = rec.Value.Int()
		case param.Bool:
			values[rec.Name] = rec.Value.Bool()
		case param.Text:
			values[rec.Name] = rec.Value.Text()
		}
	}
	return Snapshot{
		Name:    name,
		Created: time.Now().UTC(),
		Script:  script,
		Values:  values,
	}
}

// Resolve maps the snapshot's raw TOML values onto the model's declared
// kinds. Names absent from the model are returned in skipped rather than
// failing the whole preset; a value the declared type cannot represent is
// an error.
func (s *Snapshot) Resolve(m *param.Model) (map[string]param.Value, []string, error) {
	values := make(map[string]param.Value, len(s.Values))
	var skipped []string
	for name, raw := range s.Values {
		rec, ok := m.Get(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		v, err := coerce(rec.Type, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("preset: %s: %w", name, err)
		}
		values[name] = v
	}
	sort.Strings(skipped)
	return values, skipped, nil
}

// coerce converts a decoded TOML value to the declared kind. TOML reads
// whole numbers as int64 even for float-declared parameters, so numerics
// widen.
func coerce(kind param.Kind, raw any) (param.Value, error) {
	switch kind {
	case param.Float:
		switch n := raw.(type) {
		case float64:
			return param.FloatValue(n), nil
		case int64:
			return param.FloatValue(float64(n)), nil
		}
	case param.Int:
		if n, ok := raw.(int64); ok {
			return param.IntValue(n), nil
		}
	case param.Bool:
		if b, ok := raw.(bool); ok {
			return param.BoolValue(b), nil
		}
	case param.Text:
		if t, ok := raw.(string); ok {
			return param.TextValue(t), nil
		}
	}
	return param.Value{}, fmt.Errorf("value %v is not a %s", raw, kind)
}

// Path returns the preset file path for a script and preset name.
func Path(dir, script, name string) string {
	stem := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	return filepath.Join(dir, stem+"_"+sanitize(name)+fileSuffix)
}

// Save writes the snapshot atomically (write temp + rename) and returns
// the file path.
func Save(dir string, snap Snapshot) (string, error) {
	data, err := toml.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("preset: marshal %q: %w", snap.Name, err)
	}

	path := Path(dir, snap.Script, snap.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("preset: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("preset: rename preset file: %w", err)
	}
	return path, nil
}

// Load reads the named preset for a script.
func Load(dir, script, name string) (*Snapshot, error) {
	path := Path(dir, script, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	var snap Snapshot
	if err := toml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("preset: parse %s: %w", path, err)
	}
	return &snap, nil
}

// Delete removes the named preset for a script.
func Delete(dir, script, name string) error {
	path := Path(dir, script, name)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("preset: delete %s: %w", path, err)
	}
	return nil
}

// List returns the preset names saved for a script, sorted.
func List(dir, script string) ([]string, error) {
	stem := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	pattern := filepath.Join(dir, stem+"_*"+fileSuffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("preset: list presets: %w", err)
	}

	prefix := stem + "_"
	var names []string
	for _, m := range matches {
		base := filepath.Base(m)
		name := strings.TrimSuffix(strings.TrimPrefix(base, prefix), fileSuffix)
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// sanitize makes a preset name safe for use in a filename.
func sanitize(name string) string {
	return strings.NewReplacer(" ", "_", "/", "_").Replace(name)
}
