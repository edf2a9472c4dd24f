// Package document implements the in-memory subtitle document: one
// ordered entry sequence per open file, every mutating operation on it,
// and the command log that makes each mutation reversible.
//
// Structural invariant: entry ids are always the contiguous sequence
// 1..n in list order once an operation completes. Ids therefore shift
// meaning across mutations, so selection state is held as plain ids and
// re-resolved by position after every renumbering.
package document

import (
	"github.com/opencaption/subedit/internal/history"
	"github.com/opencaption/subedit/internal/subtitle"
)

// DefaultEntryDurationMs is the duration given to newly added entries.
const DefaultEntryDurationMs = 3000

// Document owns the entry sequence for one open subtitle file. It is
// not safe for concurrent use; the owning registry serializes access.
type Document struct {
	entries  []subtitle.Entry
	filePath string

	// Weak references: ids, not positions. Zero means none.
	currentEntryID int
	editingEntryID int

	hist      *history.History
	conflicts []subtitle.Conflict

	// id -> position, rebuilt by renumber.
	index map[int]int

	dragging  bool
	dragOrder []int
	dragTimes map[int]dragSnapshot

	entryDurationMs int
}

type dragSnapshot struct {
	start subtitle.TimeCode
	end   subtitle.TimeCode
}

// Option configures a Document.
type Option func(*Document)

// WithEntryDuration overrides the default duration of added entries.
func WithEntryDuration(ms int) Option {
	return func(d *Document) {
		if ms > 0 {
			d.entryDurationMs = ms
		}
	}
}

// WithHistoryCapacity bounds the undo log.
func WithHistoryCapacity(n int) Option {
	return func(d *Document) {
		d.hist = history.NewWithCapacity(n)
	}
}

// New creates a document over the given entries with a fresh empty
// history. Entries are renumbered and derived state is computed once.
func New(filePath string, entries []subtitle.Entry, opts ...Option) *Document {
	d := &Document{
		entries:         append([]subtitle.Entry(nil), entries...),
		filePath:        filePath,
		hist:            history.New(),
		index:           make(map[int]int),
		entryDurationMs: DefaultEntryDurationMs,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.renumber()
	d.derive()
	return d
}

// Entries returns a copy of the entry sequence in timeline order.
func (d *Document) Entries() []subtitle.Entry {
	ret := make([]subtitle.Entry, len(d.entries))
	copy(ret, d.entries)
	return ret
}

// Entry returns the entry with the given id.
func (d *Document) Entry(id int) (subtitle.Entry, bool) {
	idx, ok := d.index[id]
	if !ok {
		return subtitle.Entry{}, false
	}
	return d.entries[idx], true
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.entries)
}

// Conflicts returns the overlaps detected by the last derivation pass.
func (d *Document) Conflicts() []subtitle.Conflict {
	ret := make([]subtitle.Conflict, len(d.conflicts))
	copy(ret, d.conflicts)
	return ret
}

// FilePath returns the backing file path, empty for unsaved documents.
func (d *Document) FilePath() string {
	return d.filePath
}

// SetFilePath repoints the document at a new backing file (save-as).
func (d *Document) SetFilePath(path string) {
	d.filePath = path
}

// CurrentEntryID returns the selected entry id, zero for none.
func (d *Document) CurrentEntryID() int {
	return d.currentEntryID
}

// SetCurrentEntryID selects an entry; unknown ids clear the selection.
func (d *Document) SetCurrentEntryID(id int) {
	if _, ok := d.index[id]; !ok {
		d.currentEntryID = 0
		return
	}
	d.currentEntryID = id
}

// EditingEntryID returns the entry id in edit mode, zero for none.
func (d *Document) EditingEntryID() int {
	return d.editingEntryID
}

// SetEditingEntryID marks an entry as being edited; unknown ids clear it.
func (d *Document) SetEditingEntryID(id int) {
	if _, ok := d.index[id]; !ok {
		d.editingEntryID = 0
		return
	}
	d.editingEntryID = id
}

// History exposes the document's undo log (for dirty/len inspection).
func (d *Document) History() *history.History {
	return d.hist
}

// CanUndo reports whether an undoable action exists.
func (d *Document) CanUndo() bool { return d.hist.CanUndo() }

// CanRedo reports whether a redoable action exists.
func (d *Document) CanRedo() bool { return d.hist.CanRedo() }

// IsDirty reports whether the document changed since the last save.
func (d *Document) IsDirty() bool { return d.hist.IsDirty() }

// MarkSaved records the current history position as persisted. Call
// only after a confirmed successful write.
func (d *Document) MarkSaved() { d.hist.MarkSaved() }

// Revision identifies the document's current edit state for optimistic
// save confirmation.
func (d *Document) Revision() uint64 { return d.hist.Revision() }

// MarkSavedAt records the save only when the document is still at the
// given revision; edits that landed after the snapshot keep it dirty.
func (d *Document) MarkSavedAt(revision uint64) bool { return d.hist.MarkSavedAt(revision) }

// renumber reassigns every entry id to its list position plus one and
// re-resolves the selection ids, which may still carry pre-mutation
// values, through their current positions.
func (d *Document) renumber() {
	curIdx := d.position(d.currentEntryID)
	editIdx := d.position(d.editingEntryID)

	d.index = make(map[int]int, len(d.entries))
	for i := range d.entries {
		d.entries[i].ID = i + 1
		d.index[i+1] = i
	}

	if curIdx >= 0 {
		d.currentEntryID = curIdx + 1
	} else {
		d.currentEntryID = 0
	}
	if editIdx >= 0 {
		d.editingEntryID = editIdx + 1
	} else {
		d.editingEntryID = 0
	}
}

// position scans for an id against the live (possibly stale-id) entry
// slice. Used mid-mutation when the index map cannot be trusted.
func (d *Document) position(id int) int {
	if id == 0 {
		return -1
	}
	for i := range d.entries {
		if d.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// derive recomputes conflict flags and track lanes for the whole
// sequence. Runs after every structural or time-affecting mutation.
func (d *Document) derive() {
	d.conflicts = subtitle.DetectConflicts(d.entries)
	subtitle.AssignTracks(d.entries)
}
