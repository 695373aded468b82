package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEmitWritesJSONL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	e, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	if err := e.Emit(Event{Kind: KindScan, Script: "wave_demo.py", Data: map[string]any{"parameters": 3}}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := e.Emit(Event{Kind: KindCommit, Script: "wave_demo.py"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not filled in")
		}
		kinds = append(kinds, evt.Kind)
	}
	if len(kinds) != 2 || kinds[0] != KindScan || kinds[1] != KindCommit {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestEmitAppends(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	for i := 0; i < 2; i++ {
		e, err := NewEmitter(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Emit(Event{Kind: KindSave}); err != nil {
			t.Fatal(err)
		}
		e.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("file has %d lines, want 2", lines)
	}
}

func TestNilEmitterIsNoOp(t *testing.T) {
	t.Parallel()
	var e *Emitter
	if err := e.Emit(Event{Kind: KindUndo}); err != nil {
		t.Errorf("nil Emit returned %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("nil Close returned %v", err)
	}
}
