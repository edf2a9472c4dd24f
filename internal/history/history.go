// Package history implements the bounded, linear undo/redo log owned by
// each open document tab. The log itself is a pure cursor state machine;
// applying an action's inverse or forward semantics is the document's
// job, driven by the action handed back from StepBack/StepForward.
package history

// DefaultCapacity bounds the number of retained actions. Older steps
// are evicted silently; undo past the eviction point is permanently
// unavailable.
const DefaultCapacity = 100

// unreachableCursor marks a saved position that was truncated or
// evicted out of the log. No cursor value can equal it again, so the
// document stays dirty until the next MarkSaved.
const unreachableCursor = -2

// History is a bounded append-and-truncate command log with a cursor
// pointing at the last applied action (-1 when nothing is applied).
type History struct {
	actions     []Action
	cursor      int
	savedCursor int
	capacity    int
	revision    uint64
}

// New creates an empty history with the default capacity.
func New() *History {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates an empty history bounded to the given size.
func NewWithCapacity(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		actions:     make([]Action, 0),
		cursor:      -1,
		savedCursor: -1,
		capacity:    capacity,
	}
}

// Record truncates any redoable tail, appends the action and advances
// the cursor. When capacity is exceeded the oldest action is evicted
// and the cursor shifts down to keep its relative position.
func (h *History) Record(action Action) {
	if h.savedCursor > h.cursor {
		// The saved state lived in the tail we are about to drop.
		h.savedCursor = unreachableCursor
	}
	h.actions = append(h.actions[:h.cursor+1], action)
	h.cursor++
	h.revision++

	if len(h.actions) > h.capacity {
		h.actions = h.actions[1:]
		h.cursor--
		if h.savedCursor >= 0 {
			h.savedCursor--
		} else if h.savedCursor == -1 {
			h.savedCursor = unreachableCursor
		}
	}
}

// CanUndo reports whether an applied action remains below the cursor.
func (h *History) CanUndo() bool {
	return h.cursor >= 0
}

// CanRedo reports whether a previously undone action remains above the
// cursor.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.actions)-1
}

// StepBack hands out the action at the cursor and moves the cursor
// down. The caller applies the action's inverse. Returns false without
// moving when nothing can be undone.
func (h *History) StepBack() (Action, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	action := h.actions[h.cursor]
	h.cursor--
	h.revision++
	return action, true
}

// StepForward moves the cursor up and hands out the action now at the
// cursor. The caller applies the action's forward semantics. Returns
// false without moving when nothing can be redone.
func (h *History) StepForward() (Action, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	h.revision++
	return h.actions[h.cursor], true
}

// IsDirty reports whether the cursor has moved since the last save.
func (h *History) IsDirty() bool {
	return h.cursor != h.savedCursor
}

// MarkSaved pins the dirty flag to the current cursor. Callers must
// invoke it only after persistence has been confirmed successful.
func (h *History) MarkSaved() {
	h.savedCursor = h.cursor
}

// Revision identifies the current log position. It advances on every
// record, undo and redo, and never repeats even when eviction makes
// cursor values recur.
func (h *History) Revision() uint64 {
	return h.revision
}

// MarkSavedAt pins the dirty flag only when the log still sits at the
// given revision. Returns false, leaving the log dirty, when another
// action landed after the revision was read.
func (h *History) MarkSavedAt(revision uint64) bool {
	if revision != h.revision {
		return false
	}
	h.savedCursor = h.cursor
	return true
}

// Len returns the number of retained actions.
func (h *History) Len() int {
	return len(h.actions)
}

// Actions returns a copy of the retained log, oldest first.
func (h *History) Actions() []Action {
	ret := make([]Action, len(h.actions))
	copy(ret, h.actions)
	return ret
}
