package document

import (
	"time"

	"github.com/opencaption/subedit/internal/history"
	"github.com/opencaption/subedit/internal/subtitle"
)

// UpdateText replaces an entry's text and records an undoable edit.
// Unknown ids and unchanged text are silent no-ops.
func (d *Document) UpdateText(id int, newText string) bool {
	idx, ok := d.index[id]
	if !ok {
		return false
	}
	if d.entries[idx].Text == newText {
		return false
	}

	d.hist.Record(history.TextEdit{
		EntryID: id,
		At:      time.Now(),
		Before:  d.entries[idx].Text,
		After:   newText,
	})
	d.entries[idx].Text = newText
	return true
}

// UpdateTime updates whichever of start/end is non-nil. Only fields
// that actually change are captured into the history record, and the
// record is written only when recordHistory is set; drag-in-progress
// callers suppress it and commit one consolidated record on drag end.
// Conflict and track state is re-derived unconditionally.
func (d *Document) UpdateTime(id int, start, end *subtitle.TimeCode, recordHistory bool) bool {
	idx, ok := d.index[id]
	if !ok {
		return false
	}

	action := history.TimeEdit{EntryID: id, At: time.Now()}
	changed := false

	if start != nil && *start != d.entries[idx].StartTime {
		before := d.entries[idx].StartTime
		after := *start
		action.BeforeStart, action.AfterStart = &before, &after
		d.entries[idx].StartTime = after
		changed = true
	}
	if end != nil && *end != d.entries[idx].EndTime {
		before := d.entries[idx].EndTime
		after := *end
		action.BeforeEnd, action.AfterEnd = &before, &after
		d.entries[idx].EndTime = after
		changed = true
	}

	if changed && recordHistory {
		d.hist.Record(action)
	}
	d.derive()
	return changed
}

// StartDragging snapshots start/end times for the given ids before a
// continuous drag. Intermediate updates arrive through UpdateTime with
// recordHistory false; EndDragging commits the consolidated diff.
func (d *Document) StartDragging(ids []int) {
	d.dragging = true
	d.dragOrder = d.dragOrder[:0]
	d.dragTimes = make(map[int]dragSnapshot, len(ids))
	for _, id := range ids {
		idx, ok := d.index[id]
		if !ok {
			continue
		}
		if _, seen := d.dragTimes[id]; seen {
			continue
		}
		d.dragOrder = append(d.dragOrder, id)
		d.dragTimes[id] = dragSnapshot{
			start: d.entries[idx].StartTime,
			end:   d.entries[idx].EndTime,
		}
	}
}

// EndDragging diffs the drag snapshot against current values and emits
// exactly one time edit per entry whose times actually changed, so a
// multi-frame drag is a single undo step per entry.
func (d *Document) EndDragging() {
	if !d.dragging {
		return
	}
	d.dragging = false

	for _, id := range d.dragOrder {
		snap := d.dragTimes[id]
		idx, ok := d.index[id]
		if !ok {
			continue
		}

		action := history.TimeEdit{EntryID: id, At: time.Now()}
		changed := false
		if d.entries[idx].StartTime != snap.start {
			before, after := snap.start, d.entries[idx].StartTime
			action.BeforeStart, action.AfterStart = &before, &after
			changed = true
		}
		if d.entries[idx].EndTime != snap.end {
			before, after := snap.end, d.entries[idx].EndTime
			action.BeforeEnd, action.AfterEnd = &before, &after
			changed = true
		}
		if changed {
			d.hist.Record(action)
		}
	}

	d.dragOrder = nil
	d.dragTimes = nil
}

// applyBatchTransform rewrites every entry's text and records a single
// description-only batch action. Batch actions occupy a history slot
// but undoing or redoing one only moves the cursor.
func (d *Document) applyBatchTransform(description string, fn subtitle.TextTransform) {
	for i := range d.entries {
		d.entries[i].Text = fn(d.entries[i].Text)
	}
	d.hist.Record(history.Batch{At: time.Now(), Description: description})
}

// RemoveHTMLTags strips markup from every entry.
func (d *Document) RemoveHTMLTags() {
	d.applyBatchTransform("Remove HTML tags", subtitle.RemoveHTMLTags)
}

// RemovePunctuation strips punctuation from every entry.
func (d *Document) RemovePunctuation() {
	d.applyBatchTransform("Remove punctuation", subtitle.RemovePunctuation)
}

// AddCJKSpacing inserts spaces between CJK and alphanumeric runs in
// every entry.
func (d *Document) AddCJKSpacing() {
	d.applyBatchTransform("Add spaces between CJK and alphanumeric", subtitle.AddSpacesBetweenCJKAndAlphanumeric)
}

// ToUpperCase upper-cases every entry.
func (d *Document) ToUpperCase() {
	d.applyBatchTransform("Convert to upper case", subtitle.ToUpperCase)
}

// ToLowerCase lower-cases every entry.
func (d *Document) ToLowerCase() {
	d.applyBatchTransform("Convert to lower case", subtitle.ToLowerCase)
}

// ApplyTransform applies a text transform to a single entry through the
// normal text-edit path, so unlike the batch variants it is properly
// undoable.
func (d *Document) ApplyTransform(id int, fn subtitle.TextTransform) bool {
	idx, ok := d.index[id]
	if !ok {
		return false
	}
	return d.UpdateText(id, fn(d.entries[idx].Text))
}

// SetCorrectionSuggestion attaches an asynchronous correction result to
// an entry. Suggestions may arrive after the entry is gone; unknown ids
// are a silent no-op.
func (d *Document) SetCorrectionSuggestion(id int, suggestion string) {
	idx, ok := d.index[id]
	if !ok {
		return
	}
	d.entries[idx].CorrectionSuggestion = suggestion
	d.entries[idx].NeedsCorrection = true
}

// ApplyCorrectionSuggestion folds the pending suggestion into the
// entry's text through the undoable text-edit path and clears the mark.
func (d *Document) ApplyCorrectionSuggestion(id int) bool {
	idx, ok := d.index[id]
	if !ok {
		return false
	}
	suggestion := d.entries[idx].CorrectionSuggestion
	if suggestion == "" {
		return false
	}

	d.UpdateText(id, suggestion)
	d.entries[idx].CorrectionSuggestion = ""
	d.entries[idx].NeedsCorrection = false
	return true
}

// DismissCorrectionSuggestion drops a pending suggestion without
// touching the text. Not recorded in history.
func (d *Document) DismissCorrectionSuggestion(id int) {
	idx, ok := d.index[id]
	if !ok {
		return
	}
	d.entries[idx].CorrectionSuggestion = ""
	d.entries[idx].NeedsCorrection = false
}

// SetCorrectionMark flags or unflags an entry for correction review.
// Not recorded in history.
func (d *Document) SetCorrectionMark(id int, marked bool) {
	idx, ok := d.index[id]
	if !ok {
		return
	}
	d.entries[idx].NeedsCorrection = marked
	if !marked {
		d.entries[idx].CorrectionSuggestion = ""
	}
}

// ToggleCorrectionMark flips an entry's correction flag.
func (d *Document) ToggleCorrectionMark(id int) {
	idx, ok := d.index[id]
	if !ok {
		return
	}
	d.SetCorrectionMark(id, !d.entries[idx].NeedsCorrection)
}

// ClearCorrectionMarks removes correction flags and suggestions from
// every entry.
func (d *Document) ClearCorrectionMarks() {
	for i := range d.entries {
		d.entries[i].NeedsCorrection = false
		d.entries[i].CorrectionSuggestion = ""
	}
}
