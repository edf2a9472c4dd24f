package document

import (
	"sort"
	"strings"
	"time"

	"github.com/opencaption/subedit/internal/history"
	"github.com/opencaption/subedit/internal/subtitle"
)

// AddEntry inserts a new entry after the referenced one, or appends when
// afterID is zero or unknown. The new entry starts where the reference
// (or last) entry ends and runs for the configured default duration; an
// empty document starts at zero. The new entry is selected and put into
// edit mode.
func (d *Document) AddEntry(afterID int) subtitle.Entry {
	insertAt := len(d.entries)
	var ref *subtitle.Entry
	if idx, ok := d.index[afterID]; ok {
		insertAt = idx + 1
		ref = &d.entries[idx]
	} else if len(d.entries) > 0 {
		ref = &d.entries[len(d.entries)-1]
	}

	startMs := 0
	if ref != nil {
		startMs = ref.EndTime.Millis()
	}
	entry := subtitle.Entry{
		StartTime: subtitle.TimeCodeFromMillis(startMs),
		EndTime:   subtitle.TimeCodeFromMillis(startMs + d.entryDurationMs),
	}

	d.entries = append(d.entries, subtitle.Entry{})
	copy(d.entries[insertAt+1:], d.entries[insertAt:])
	d.entries[insertAt] = entry
	d.renumber()

	added := d.entries[insertAt]
	d.currentEntryID = added.ID
	d.editingEntryID = added.ID

	d.hist.Record(history.Add{
		EntryID: added.ID,
		At:      time.Now(),
		After:   added,
	})
	d.derive()
	return added
}

// DeleteEntry removes one entry and records an undoable delete. The
// selection is repaired to the entry now occupying the removed
// position, or the previous position when the last entry was removed.
func (d *Document) DeleteEntry(id int) bool {
	idx, ok := d.index[id]
	if !ok {
		return false
	}

	d.hist.Record(history.Delete{
		EntryID: id,
		At:      time.Now(),
		Before:  d.entries[idx],
	})

	d.entries = append(d.entries[:idx], d.entries[idx+1:]...)
	d.repairSelectionAt(idx)
	d.renumber()
	d.derive()
	return true
}

// DeleteEntries removes a batch of entries in one pass. Unlike
// DeleteEntry it records nothing: bulk delete from a timeline
// multi-select is a deliberate non-undoable shortcut. Returns the
// number of entries removed.
func (d *Document) DeleteEntries(ids []int) int {
	remove := make(map[int]bool, len(ids))
	firstIdx := -1
	for _, id := range ids {
		idx, ok := d.index[id]
		if !ok {
			continue
		}
		remove[id] = true
		if firstIdx < 0 || idx < firstIdx {
			firstIdx = idx
		}
	}
	if len(remove) == 0 {
		return 0
	}

	kept := d.entries[:0]
	for _, entry := range d.entries {
		if !remove[entry.ID] {
			kept = append(kept, entry)
		}
	}
	removed := len(d.entries) - len(kept)
	d.entries = kept

	d.repairSelectionAt(firstIdx)
	d.renumber()
	d.derive()
	return removed
}

// repairSelectionAt points the selection at the entry now occupying the
// given position, clamped to the new tail. Resolution is positional on
// purpose: the removed entry's id is about to be reassigned to its
// successor by renumbering.
func (d *Document) repairSelectionAt(idx int) {
	if len(d.entries) == 0 {
		d.currentEntryID = 0
		d.editingEntryID = 0
		return
	}
	if idx >= len(d.entries) {
		idx = len(d.entries) - 1
	}
	d.currentEntryID = d.entries[idx].ID
	if d.position(d.editingEntryID) < 0 {
		d.editingEntryID = 0
	}
}

// SplitEntry cuts an entry in two at splitTimeMs, which must lie
// strictly inside the entry's interval. The original keeps its start
// and is shortened to the split point; the inserted second half carries
// a copy of the text. Returns the inserted entry.
func (d *Document) SplitEntry(id int, splitTimeMs int) (subtitle.Entry, bool) {
	idx, ok := d.index[id]
	if !ok {
		return subtitle.Entry{}, false
	}

	original := d.entries[idx]
	if splitTimeMs <= original.StartTime.Millis() || splitTimeMs >= original.EndTime.Millis() {
		return subtitle.Entry{}, false
	}

	splitTime := subtitle.TimeCodeFromMillis(splitTimeMs)
	d.entries[idx].EndTime = splitTime
	newEntry := subtitle.Entry{
		StartTime: splitTime,
		EndTime:   original.EndTime,
		Text:      original.Text,
	}

	d.entries = append(d.entries, subtitle.Entry{})
	copy(d.entries[idx+2:], d.entries[idx+1:])
	d.entries[idx+1] = newEntry
	d.renumber()

	inserted := d.entries[idx+1]
	d.hist.Record(history.Split{
		EntryID:    original.ID,
		At:         time.Now(),
		Before:     original,
		After:      d.entries[idx],
		NewEntryID: inserted.ID,
		NewEntry:   inserted,
	})
	d.derive()
	return inserted, true
}

// MergeEntries absorbs a positionally contiguous run of entries into
// the first: texts join with single spaces in id order and the end time
// extends to the last entry's end. Fails on fewer than two ids, unknown
// ids, or a gap in the run.
func (d *Document) MergeEntries(ids []int) (subtitle.Entry, bool) {
	if len(ids) < 2 {
		return subtitle.Entry{}, false
	}

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	for i, id := range sorted {
		if _, ok := d.index[id]; !ok {
			return subtitle.Entry{}, false
		}
		// Ids equal position+1, so a contiguous run is consecutive ids.
		if i > 0 && id != sorted[i-1]+1 {
			return subtitle.Entry{}, false
		}
	}

	firstIdx := d.index[sorted[0]]
	first := d.entries[firstIdx]
	absorbed := make([]subtitle.Entry, 0, len(sorted)-1)
	texts := []string{first.Text}
	for _, id := range sorted[1:] {
		entry := d.entries[d.index[id]]
		absorbed = append(absorbed, entry)
		texts = append(texts, entry.Text)
	}

	d.entries[firstIdx].Text = strings.Join(texts, " ")
	d.entries[firstIdx].EndTime = absorbed[len(absorbed)-1].EndTime
	d.entries = append(d.entries[:firstIdx+1], d.entries[firstIdx+len(sorted):]...)

	d.currentEntryID = first.ID
	d.renumber()

	merged := d.entries[firstIdx]
	d.hist.Record(history.Merge{
		EntryID:  first.ID,
		At:       time.Now(),
		Before:   first,
		After:    merged,
		Absorbed: absorbed,
	})
	d.derive()
	return merged, true
}
