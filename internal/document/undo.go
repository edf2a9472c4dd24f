package document

import (
	"github.com/opencaption/subedit/internal/history"
	"github.com/opencaption/subedit/internal/subtitle"
)

// Undo reverts the last applied action using its before snapshot.
// Returns false when nothing can be undone. Actions unwind in reverse
// record order, so the ids stored in an action always match the live
// ids at the moment it is undone.
func (d *Document) Undo() bool {
	action, ok := d.hist.StepBack()
	if !ok {
		return false
	}

	switch a := action.(type) {
	case history.TextEdit:
		if idx, ok := d.index[a.EntryID]; ok {
			d.entries[idx].Text = a.Before
		}

	case history.TimeEdit:
		if idx, ok := d.index[a.EntryID]; ok {
			if a.BeforeStart != nil {
				d.entries[idx].StartTime = *a.BeforeStart
			}
			if a.BeforeEnd != nil {
				d.entries[idx].EndTime = *a.BeforeEnd
			}
		}
		d.derive()

	case history.Delete:
		d.insertAt(a.Before.ID-1, a.Before)
		d.renumber()
		d.currentEntryID = a.Before.ID
		d.derive()

	case history.Add:
		d.removeAt(a.After.ID - 1)
		d.repairSelectionAt(a.After.ID - 1)
		d.renumber()
		d.derive()

	case history.Split:
		d.removeAt(a.NewEntryID - 1)
		d.setAt(a.Before.ID-1, a.Before)
		d.renumber()
		d.derive()

	case history.Merge:
		d.removeAt(a.After.ID - 1)
		restored := append([]subtitle.Entry{a.Before}, a.Absorbed...)
		d.insertAt(a.Before.ID-1, restored...)
		d.renumber()
		d.currentEntryID = a.Before.ID
		d.derive()

	case history.Batch:
		// Description-only: the cursor moved, entries stay as they are.
	}

	return true
}

// Redo reapplies the next undone action using its after snapshot.
// Returns false when nothing can be redone.
func (d *Document) Redo() bool {
	action, ok := d.hist.StepForward()
	if !ok {
		return false
	}

	switch a := action.(type) {
	case history.TextEdit:
		if idx, ok := d.index[a.EntryID]; ok {
			d.entries[idx].Text = a.After
		}

	case history.TimeEdit:
		if idx, ok := d.index[a.EntryID]; ok {
			if a.AfterStart != nil {
				d.entries[idx].StartTime = *a.AfterStart
			}
			if a.AfterEnd != nil {
				d.entries[idx].EndTime = *a.AfterEnd
			}
		}
		d.derive()

	case history.Delete:
		d.removeAt(a.Before.ID - 1)
		d.repairSelectionAt(a.Before.ID - 1)
		d.renumber()
		d.derive()

	case history.Add:
		d.insertAt(a.After.ID-1, a.After)
		d.renumber()
		d.currentEntryID = a.After.ID
		d.editingEntryID = a.After.ID
		d.derive()

	case history.Split:
		d.setAt(a.Before.ID-1, a.After)
		d.insertAt(a.NewEntryID-1, a.NewEntry)
		d.renumber()
		d.derive()

	case history.Merge:
		d.setAt(a.Before.ID-1, a.After)
		start := a.Before.ID
		end := start + len(a.Absorbed)
		if start <= len(d.entries) {
			if end > len(d.entries) {
				end = len(d.entries)
			}
			d.entries = append(d.entries[:start], d.entries[end:]...)
		}
		d.renumber()
		d.currentEntryID = a.After.ID
		d.derive()

	case history.Batch:
		// Description-only: the cursor moved, entries stay as they are.
	}

	return true
}

func (d *Document) insertAt(idx int, entries ...subtitle.Entry) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(d.entries) {
		idx = len(d.entries)
	}
	d.entries = append(d.entries, entries...)
	copy(d.entries[idx+len(entries):], d.entries[idx:len(d.entries)-len(entries)])
	copy(d.entries[idx:], entries)
}

// setAt overwrites the entry at a snapshot position. Positions can run
// past the live list when a non-undoable bulk delete intervened; those
// writes are dropped rather than faulted.
func (d *Document) setAt(idx int, entry subtitle.Entry) {
	if idx < 0 || idx >= len(d.entries) {
		return
	}
	d.entries[idx] = entry
}

func (d *Document) removeAt(idx int) {
	if idx < 0 || idx >= len(d.entries) {
		return
	}
	d.entries = append(d.entries[:idx], d.entries[idx+1:]...)
}
