// Package history keeps the linear undo/redo sequence of applied edits.
// Entries are immutable; the stacks move only after the caller's apply
// function has routed the inverse edit set through the rewrite engine and
// reported success, so a failed undo or redo leaves history exactly as it
// was. Depth is unbounded.
package history

import (
	"time"

	"scenetune/internal/param"
)

// Change is one parameter transition inside an entry.
type Change struct {
	Name string
	Old  param.Value
	New  param.Value
}

// Entry is one atomic user action: a single-field or batched multi-field
// commit, in the order the edits were requested.
type Entry struct {
	At      time.Time
	Changes []Change
}

// Inverse returns the entry with old and new values swapped, preserving
// change order.
func (e Entry) Inverse() Entry {
	inv := Entry{At: e.At, Changes: make([]Change, len(e.Changes))}
	for i, c := range e.Changes {
		inv.Changes[i] = Change{Name: c.Name, Old: c.New, New: c.Old}
	}
	return inv
}

// History holds the undo and redo stacks. It is not safe for concurrent
// use; the owning session serializes all access.
type History struct {
	undo []Entry
	redo []Entry
}

// New returns an empty history.
func New() *History {
	return &History{}
}

// Restore seeds the stacks from a persisted journal: entries at or below
// the cursor become the undo stack, the rest the redo stack.
func Restore(entries []Entry, cursor int) *History {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(entries) {
		cursor = len(entries)
	}
	h := &History{}
	h.undo = append(h.undo, entries[:cursor]...)
	// Redo entries stack most-recently-undone last, so the slice reverses.
	for i := len(entries) - 1; i >= cursor; i-- {
		h.redo = append(h.redo, entries[i])
	}
	return h
}

// Commit pushes a new entry onto the undo stack and discards the redo
// stack: a fresh edit after an undo invalidates forward history.
func (h *History) Commit(e Entry) {
	h.undo = append(h.undo, e)
	h.redo = nil
}

// Undo hands the most recent entry to apply, which must perform the
// inverse edits. Only when apply succeeds does the entry move to the redo
// stack. The bool is false when there is nothing to undo.
func (h *History) Undo(apply func(Entry) error) (Entry, bool, error) {
	if len(h.undo) == 0 {
		return Entry{}, false, nil
	}
	e := h.undo[len(h.undo)-1]
	if err := apply(e); err != nil {
		return Entry{}, true, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	return e, true, nil
}

// Redo mirrors Undo for the redo stack: apply re-performs the entry's
// edits, and success moves it back onto the undo stack.
func (h *History) Redo(apply func(Entry) error) (Entry, bool, error) {
	if len(h.redo) == 0 {
		return Entry{}, false, nil
	}
	e := h.redo[len(h.redo)-1]
	if err := apply(e); err != nil {
		return Entry{}, true, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	return e, true, nil
}

// CanUndo reports whether an entry is available to undo.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether an entry is available to redo.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the undo stack size.
func (h *History) Depth() int { return len(h.undo) }
