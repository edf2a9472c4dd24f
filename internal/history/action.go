package history

import (
	"time"

	"github.com/opencaption/subedit/internal/subtitle"
)

// Kind identifies an action variant.
type Kind string

const (
	KindTextEdit Kind = "text_edit"
	KindTimeEdit Kind = "time_edit"
	KindDelete   Kind = "delete"
	KindAdd      Kind = "add"
	KindSplit    Kind = "split"
	KindMerge    Kind = "merge"
	KindBatch    Kind = "batch"
)

// Action is one reversible document mutation. The set of variants is
// closed: every implementation lives in this package, so undo/redo
// dispatch can type-switch exhaustively. Actions are immutable once
// recorded.
type Action interface {
	Kind() Kind
	RecordedAt() time.Time

	isAction()
}

// TextEdit captures a text change on a single entry.
type TextEdit struct {
	EntryID int
	At      time.Time
	Before  string
	After   string
}

// TimeEdit captures a timing change on a single entry. Only the fields
// that actually changed are captured; a nil pointer means the field was
// untouched.
type TimeEdit struct {
	EntryID     int
	At          time.Time
	BeforeStart *subtitle.TimeCode
	AfterStart  *subtitle.TimeCode
	BeforeEnd   *subtitle.TimeCode
	AfterEnd    *subtitle.TimeCode
}

// Delete captures the removal of a single entry. Before is the full
// snapshot at removal time; its ID doubles as the removal position plus
// one under the renumbering invariant.
type Delete struct {
	EntryID int
	At      time.Time
	Before  subtitle.Entry
}

// Add captures an inserted entry. After is the full snapshot taken
// after renumbering, so its ID is the insertion position plus one.
type Add struct {
	EntryID int
	At      time.Time
	After   subtitle.Entry
}

// Split captures cutting one entry in two. Before is the original,
// After the shortened original, NewEntry the inserted second half.
type Split struct {
	EntryID    int
	At         time.Time
	Before     subtitle.Entry
	After      subtitle.Entry
	NewEntryID int
	NewEntry   subtitle.Entry
}

// Merge captures absorbing a contiguous run of entries into the first.
// Before is the first entry pre-merge, After the merged result, and
// Absorbed holds the full snapshots of the removed entries in id order.
type Merge struct {
	EntryID  int
	At       time.Time
	Before   subtitle.Entry
	After    subtitle.Entry
	Absorbed []subtitle.Entry
}

// Batch marks a whole-document transform. It carries only a description:
// batch transforms occupy a history slot for display, but undo/redo of a
// Batch moves the cursor without touching entries.
type Batch struct {
	At          time.Time
	Description string
}

func (a TextEdit) Kind() Kind { return KindTextEdit }
func (a TimeEdit) Kind() Kind { return KindTimeEdit }
func (a Delete) Kind() Kind   { return KindDelete }
func (a Add) Kind() Kind      { return KindAdd }
func (a Split) Kind() Kind    { return KindSplit }
func (a Merge) Kind() Kind    { return KindMerge }
func (a Batch) Kind() Kind    { return KindBatch }

func (a TextEdit) RecordedAt() time.Time { return a.At }
func (a TimeEdit) RecordedAt() time.Time { return a.At }
func (a Delete) RecordedAt() time.Time   { return a.At }
func (a Add) RecordedAt() time.Time      { return a.At }
func (a Split) RecordedAt() time.Time    { return a.At }
func (a Merge) RecordedAt() time.Time    { return a.At }
func (a Batch) RecordedAt() time.Time    { return a.At }

func (TextEdit) isAction() {}
func (TimeEdit) isAction() {}
func (Delete) isAction()   {}
func (Add) isAction()      {}
func (Split) isAction()    {}
func (Merge) isAction()    {}
func (Batch) isAction()    {}
