// Package session owns the live editing state for one scene script: the
// original text, the scanned model and span index, the undo/redo history,
// and the change bus. All mutation funnels through a single mutex, so the
// rewrite engine always sees a span index consistent with the text it is
// splicing.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"scenetune/internal/bus"
	"scenetune/internal/history"
	"scenetune/internal/journal"
	"scenetune/internal/param"
	"scenetune/internal/preset"
	"scenetune/internal/rewrite"
	"scenetune/internal/scan"
	"scenetune/internal/telemetry"
)

// Options configure collaborators attached at open time. Both are
// optional: a nil journal disables persistence, a nil emitter disables
// telemetry.
type Options struct {
	Journal   *journal.Journal
	Telemetry *telemetry.Emitter
}

// Session is the single-writer aggregate for one open script.
type Session struct {
	mu sync.Mutex

	path     string
	source   []byte
	model    *param.Model
	spans    *scan.SpanIndex
	warnings []scan.Warning

	hist *history.History
	bus  *bus.Bus
	jnl  *journal.Journal
	emit *telemetry.Emitter

	dirty bool
}

// JournalPath returns where a script's edit journal lives: a hidden
// SQLite file next to the script.
func JournalPath(script string) string {
	dir := filepath.Dir(script)
	stem := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	return filepath.Join(dir, "."+stem+".scenetune.db")
}

// Open reads and scans the script, then seeds history from the journal
// when one is attached. A journal that fails to load degrades to an empty
// history rather than blocking the session.
func Open(ctx context.Context, path string, opts Options) (*Session, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}

	result, err := scan.Scan(source)
	if err != nil {
		return nil, fmt.Errorf("session: scan %s: %w", path, err)
	}

	s := &Session{
		path:     path,
		source:   source,
		model:    result.Model,
		spans:    result.Spans,
		warnings: result.Warnings,
		hist:     history.New(),
		bus:      bus.New(),
		jnl:      opts.Journal,
		emit:     opts.Telemetry,
	}

	if s.jnl != nil {
		entries, cursor, err := s.jnl.Load(ctx)
		if err == nil {
			s.hist = history.Restore(entries, cursor)
		}
	}

	s.emit.Emit(telemetry.Event{
		Kind:   telemetry.KindScan,
		Script: path,
		Data: map[string]any{
			"parameters": result.Model.Len(),
			"warnings":   len(result.Warnings),
		},
	})
	return s, nil
}

// Path returns the script path the session was opened on.
func (s *Session) Path() string { return s.path }

// Text returns a copy of the current in-memory script text.
func (s *Session) Text() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.source))
	copy(out, s.source)
	return out
}

// Dirty reports whether the in-memory text differs from the file on disk.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Warnings returns the scan warnings from the last scan.
func (s *Session) Warnings() []scan.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scan.Warning(nil), s.warnings...)
}

// Get looks up one parameter record by name.
func (s *Session) Get(name string) (*param.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Get(name)
}

// All returns every record in category-then-declaration order.
func (s *Session) All() []*param.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.All()
}

// Categories returns category names in first-seen order.
func (s *Session) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Categories()
}

// InCategory returns the records declared under one category, in
// declaration order.
func (s *Session) InCategory(category string) []*param.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.model.InCategory(category)
	recs := make([]*param.Record, 0, len(names))
	for _, name := range names {
		if rec, ok := s.model.Get(name); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// CanUndo reports whether an entry is available to undo.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

// CanRedo reports whether an entry is available to redo.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// Subscribe registers a change listener on the session's bus.
func (s *Session) Subscribe(fn bus.Listener) *bus.Subscription {
	return s.bus.Subscribe(fn)
}

// Set changes a single parameter; a convenience wrapper around Commit.
func (s *Session) Set(ctx context.Context, name string, v param.Value) (history.Entry, error) {
	return s.Commit(ctx, []rewrite.Edit{{Name: name, Value: v}})
}

// Commit applies a batch of edits as one atomic action: all values are
// validated and spliced together, the entry lands on the undo stack and in
// the journal, and one event per change goes out on the bus. A failed
// batch leaves every piece of state untouched.
func (s *Session) Commit(ctx context.Context, edits []rewrite.Edit) (history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(edits) == 0 {
		return history.Entry{}, nil
	}

	entry := history.Entry{At: time.Now(), Changes: make([]history.Change, 0, len(edits))}
	for _, e := range edits {
		rec, ok := s.model.Get(e.Name)
		if !ok {
			return history.Entry{}, fmt.Errorf("session: %w: %s", rewrite.ErrUnknownParameter, e.Name)
		}
		entry.Changes = append(entry.Changes, history.Change{
			Name: e.Name, Old: rec.Value, New: e.Value,
		})
	}

	if err := s.splice(edits); err != nil {
		return history.Entry{}, err
	}

	s.hist.Commit(entry)
	if s.jnl != nil {
		if err := s.jnl.Record(ctx, entry); err != nil {
			// In-memory state is already committed; surface the
			// persistence failure without rolling back.
			s.publish(entry.Changes, bus.SourceCommit)
			return entry, fmt.Errorf("session: journal: %w", err)
		}
	}

	s.publish(entry.Changes, bus.SourceCommit)
	s.emit.Emit(telemetry.Event{
		Kind:   telemetry.KindCommit,
		Script: s.path,
		Data:   map[string]any{"changes": len(entry.Changes)},
	})
	return entry, nil
}

// Undo reverses the most recent entry by routing its inverse edits through
// the rewrite engine. The bool is false when there is nothing to undo.
func (s *Session) Undo(ctx context.Context) (history.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok, err := s.hist.Undo(func(e history.Entry) error {
		return s.splice(inverseEdits(e))
	})
	if !ok || err != nil {
		return entry, ok, err
	}

	if s.jnl != nil {
		if err := s.jnl.SetCursor(ctx, s.hist.Depth()); err != nil {
			return entry, true, fmt.Errorf("session: journal: %w", err)
		}
	}

	s.publish(entry.Inverse().Changes, bus.SourceUndo)
	s.emit.Emit(telemetry.Event{Kind: telemetry.KindUndo, Script: s.path})
	return entry, true, nil
}

// Redo re-applies the most recently undone entry.
func (s *Session) Redo(ctx context.Context) (history.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok, err := s.hist.Redo(func(e history.Entry) error {
		return s.splice(forwardEdits(e))
	})
	if !ok || err != nil {
		return entry, ok, err
	}

	if s.jnl != nil {
		if err := s.jnl.SetCursor(ctx, s.hist.Depth()); err != nil {
			return entry, true, fmt.Errorf("session: journal: %w", err)
		}
	}

	s.publish(entry.Changes, bus.SourceRedo)
	s.emit.Emit(telemetry.Event{Kind: telemetry.KindRedo, Script: s.path})
	return entry, true, nil
}

// Save writes the in-memory text back to the script atomically: write a
// temp file in the same directory, then rename over the original.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, s.source, 0o644); err != nil {
		return fmt.Errorf("session: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("session: rename over %s: %w", s.path, err)
	}
	s.dirty = false

	s.emit.Emit(telemetry.Event{Kind: telemetry.KindSave, Script: s.path})
	return nil
}

// Reload re-reads and re-scans the script after an external modification.
// History is kept: entries address parameters by name, so undo and redo
// remain valid as long as the names still scan.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("session: reload %s: %w", s.path, err)
	}
	result, err := scan.Scan(source)
	if err != nil {
		return fmt.Errorf("session: rescan %s: %w", s.path, err)
	}

	s.source = source
	s.model = result.Model
	s.spans = result.Spans
	s.warnings = result.Warnings
	s.dirty = false
	return nil
}

// Snapshot captures the current values as a named preset.
func (s *Session) Snapshot(name string) preset.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return preset.FromModel(name, filepath.Base(s.path), s.model)
}

// ApplySnapshot commits a preset's values as one atomic batch. Names the
// preset carries but the script no longer declares are returned in
// skipped; values already current are left out of the batch.
func (s *Session) ApplySnapshot(ctx context.Context, snap *preset.Snapshot) (history.Entry, []string, error) {
	s.mu.Lock()
	values, skipped, err := snap.Resolve(s.model)
	if err != nil {
		s.mu.Unlock()
		return history.Entry{}, nil, err
	}

	edits := make([]rewrite.Edit, 0, len(values))
	for name, v := range values {
		if rec, ok := s.model.Get(name); ok && rec.Value.Equal(v) {
			continue
		}
		edits = append(edits, rewrite.Edit{Name: name, Value: v})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Name < edits[j].Name })
	s.mu.Unlock()

	entry, err := s.Commit(ctx, edits)
	if err != nil {
		return history.Entry{}, nil, err
	}

	s.emit.Emit(telemetry.Event{
		Kind:   telemetry.KindPresetApplied,
		Script: s.path,
		Data:   map[string]any{"preset": snap.Name, "applied": len(edits), "skipped": len(skipped)},
	})
	return entry, skipped, nil
}

// splice runs a batch through the rewrite engine and, on success, swaps in
// the new text, span index, and model values. Caller holds the lock.
func (s *Session) splice(edits []rewrite.Edit) error {
	next, spans, err := rewrite.Apply(s.source, s.spans, s.model, edits)
	if err != nil {
		return err
	}
	s.source = next
	s.spans = spans
	for _, e := range edits {
		// Every name was resolved against the model by rewrite.Apply.
		_ = s.model.SetValue(e.Name, e.Value)
	}
	s.dirty = true
	return nil
}

func (s *Session) publish(changes []history.Change, src bus.Source) {
	events := make([]bus.Event, len(changes))
	for i, c := range changes {
		events[i] = bus.Event{Name: c.Name, Old: c.Old, New: c.New, Source: src}
	}
	s.bus.Publish(events)
}

func inverseEdits(e history.Entry) []rewrite.Edit {
	edits := make([]rewrite.Edit, len(e.Changes))
	for i, c := range e.Changes {
		edits[i] = rewrite.Edit{Name: c.Name, Value: c.Old}
	}
	return edits
}

func forwardEdits(e history.Entry) []rewrite.Edit {
	edits := make([]rewrite.Edit, len(e.Changes))
	for i, c := range e.Changes {
		edits[i] = rewrite.Edit{Name: c.Name, Value: c.New}
	}
	return edits
}
