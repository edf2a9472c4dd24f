// Package tabs owns the set of open documents. Each tab holds exactly
// one document and its undo history; switching the active tab switches
// which pair subsequent operations target, and histories never
// cross-contaminate. A mutex serializes access so a concurrent
// embedding cannot race the single-writer engine.
package tabs

import (
	"sync"

	"github.com/opencaption/subedit/internal/document"
	"github.com/opencaption/subedit/internal/subtitle"
)

// Registry is the insertion-ordered set of open tabs plus the identity
// of the active one.
type Registry struct {
	mu        sync.Mutex
	tabs      []*tab
	activeID  int // 0 = none
	idCounter int

	docOpts []document.Option
}

// NewRegistry creates an empty registry. Document options are applied
// to every document the registry opens.
func NewRegistry(docOpts ...document.Option) *Registry {
	return &Registry{docOpts: docOpts}
}

// CreateTab opens a document over the given entries and activates it.
// At most one tab exists per distinct file path: opening an already
// open path switches to the existing tab instead of creating a
// duplicate. Returns the tab snapshot and whether a tab was created.
func (r *Registry) CreateTab(filePath string, entries []subtitle.Entry) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if filePath != "" {
		for _, t := range r.tabs {
			if t.doc.FilePath() == filePath {
				r.activeID = t.id
				return t.snapshot(true), false
			}
		}
	}

	r.idCounter++
	t := &tab{
		id:           r.idCounter,
		doc:          document.New(filePath, entries, r.docOpts...),
		searchCursor: -1,
	}
	r.tabs = append(r.tabs, t)
	r.activeID = t.id
	return t.snapshot(true), true
}

// CloseTab removes a tab. When the active tab is removed, the tab now
// occupying its index becomes active, falling back to the new last tab.
// Returns whether the registry became empty, the signal for the host to
// navigate away from the editor view.
func (r *Registry) CloseTab(id int) (empty bool, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, t := range r.tabs {
		if t.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(r.tabs) == 0, false
	}

	wasActive := r.tabs[idx].id == r.activeID
	r.tabs = append(r.tabs[:idx], r.tabs[idx+1:]...)

	if len(r.tabs) == 0 {
		r.activeID = 0
		return true, true
	}
	if wasActive {
		if idx >= len(r.tabs) {
			idx = len(r.tabs) - 1
		}
		r.activeID = r.tabs[idx].id
	}
	return false, true
}

// SetActiveTab switches the routing target. Unknown ids are a no-op.
func (r *Registry) SetActiveTab(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tabs {
		if t.id == id {
			r.activeID = id
			return
		}
	}
}

// ActiveTabID returns the active tab's id, zero when none.
func (r *Registry) ActiveTabID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Tabs returns snapshots of all open tabs in insertion order.
func (r *Registry) Tabs() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]Snapshot, 0, len(r.tabs))
	for _, t := range r.tabs {
		ret = append(ret, t.snapshot(t.id == r.activeID))
	}
	return ret
}

// Len returns the number of open tabs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

func (r *Registry) active() *tab {
	for _, t := range r.tabs {
		if t.id == r.activeID {
			return t
		}
	}
	return nil
}

func (r *Registry) byID(id int) *tab {
	for _, t := range r.tabs {
		if t.id == id {
			return t
		}
	}
	return nil
}

// --- routed document operations -----------------------------------------
// Every operation below targets the active tab's document and records
// into that tab's history. They are silent no-ops with a zero result
// when no tab is active.

// Entries returns the active document's entries.
func (r *Registry) Entries() []subtitle.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.Entries()
	}
	return nil
}

// Conflicts returns the active document's detected overlaps.
func (r *Registry) Conflicts() []subtitle.Conflict {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.Conflicts()
	}
	return nil
}

// UpdateText edits one entry's text in the active document.
func (r *Registry) UpdateText(id int, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.UpdateText(id, text)
	}
	return false
}

// UpdateTime edits one entry's timing in the active document.
func (r *Registry) UpdateTime(id int, start, end *subtitle.TimeCode, recordHistory bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.UpdateTime(id, start, end, recordHistory)
	}
	return false
}

// StartDragging begins a coalesced drag on the active document.
func (r *Registry) StartDragging(ids []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		t.doc.StartDragging(ids)
	}
}

// EndDragging commits the active document's drag as single undo steps.
func (r *Registry) EndDragging() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		t.doc.EndDragging()
	}
}

// AddEntry inserts a new entry in the active document.
func (r *Registry) AddEntry(afterID int) (subtitle.Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.AddEntry(afterID), true
	}
	return subtitle.Entry{}, false
}

// DeleteEntry removes one entry from the active document.
func (r *Registry) DeleteEntry(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.DeleteEntry(id)
	}
	return false
}

// DeleteEntries bulk-removes entries from the active document.
func (r *Registry) DeleteEntries(ids []int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.DeleteEntries(ids)
	}
	return 0
}

// SplitEntry splits an entry of the active document.
func (r *Registry) SplitEntry(id, splitTimeMs int) (subtitle.Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.SplitEntry(id, splitTimeMs)
	}
	return subtitle.Entry{}, false
}

// MergeEntries merges a contiguous run of the active document.
func (r *Registry) MergeEntries(ids []int) (subtitle.Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.MergeEntries(ids)
	}
	return subtitle.Entry{}, false
}

// Undo reverts the active tab's last action. Only that tab's history
// moves.
func (r *Registry) Undo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.Undo()
	}
	return false
}

// Redo reapplies the active tab's last undone action.
func (r *Registry) Redo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.Redo()
	}
	return false
}

// ApplyBatchTransform runs a named whole-document transform on the
// active document.
func (r *Registry) ApplyBatchTransform(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.active()
	if t == nil {
		return false
	}
	switch name {
	case "remove_html_tags":
		t.doc.RemoveHTMLTags()
	case "remove_punctuation":
		t.doc.RemovePunctuation()
	case "add_cjk_spacing":
		t.doc.AddCJKSpacing()
	case "to_upper_case":
		t.doc.ToUpperCase()
	case "to_lower_case":
		t.doc.ToLowerCase()
	default:
		return false
	}
	return true
}

// SetCorrectionSuggestion attaches an async correction result to an
// entry of a specific tab (results may arrive after a tab switch, so
// routing by tab id, not by "active").
func (r *Registry) SetCorrectionSuggestion(tabID, entryID int, suggestion string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byID(tabID); t != nil {
		t.doc.SetCorrectionSuggestion(entryID, suggestion)
	}
}

// ApplyCorrectionSuggestion folds a pending suggestion into the text.
func (r *Registry) ApplyCorrectionSuggestion(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.ApplyCorrectionSuggestion(id)
	}
	return false
}

// DismissCorrectionSuggestion drops a pending suggestion.
func (r *Registry) DismissCorrectionSuggestion(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		t.doc.DismissCorrectionSuggestion(id)
	}
}

// SetCurrentEntry selects an entry in the active document.
func (r *Registry) SetCurrentEntry(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		t.doc.SetCurrentEntryID(id)
	}
}

// CurrentEntryID returns the active document's selection.
func (r *Registry) CurrentEntryID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.CurrentEntryID()
	}
	return 0
}

// Search rebuilds the active tab's search results and returns the
// matching entry ids.
func (r *Registry) Search(query string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.search(query)
	}
	return nil
}

// NextSearchResult advances the active tab's search cursor.
func (r *Registry) NextSearchResult() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.nextResult()
	}
	return 0, false
}

// PrevSearchResult steps the active tab's search cursor backwards.
func (r *Registry) PrevSearchResult() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.prevResult()
	}
	return 0, false
}

// DirtyTabs returns snapshots of tabs with unsaved changes.
func (r *Registry) DirtyTabs() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]Snapshot, 0)
	for _, t := range r.tabs {
		if t.doc.IsDirty() {
			ret = append(ret, t.snapshot(t.id == r.activeID))
		}
	}
	return ret
}

// TabEntries returns a specific tab's entries (for read-only views).
func (r *Registry) TabEntries(id int) ([]subtitle.Entry, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byID(id); t != nil {
		return t.doc.Entries(), t.doc.FilePath(), true
	}
	return nil, "", false
}

// TabContent is a save-bound snapshot of one tab: the entries to
// persist plus the revision they were read at.
type TabContent struct {
	FilePath string
	Entries  []subtitle.Entry
	Revision uint64
}

// TabContent snapshots a tab for persistence. Writers run outside the
// registry lock, so the revision must be handed back to MarkSavedAt to
// confirm which state actually reached disk.
func (r *Registry) TabContent(id int) (TabContent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byID(id); t != nil {
		return TabContent{
			FilePath: t.doc.FilePath(),
			Entries:  t.doc.Entries(),
			Revision: t.doc.Revision(),
		}, true
	}
	return TabContent{}, false
}

// MarkSavedAt pins a tab's history at the snapshot that was written.
// Returns false, leaving the tab dirty, when edits landed after the
// snapshot was taken or the tab is gone; the next sweep picks those
// edits up.
func (r *Registry) MarkSavedAt(id int, revision uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byID(id); t != nil {
		return t.doc.MarkSavedAt(revision)
	}
	return false
}

// CanUndo reports whether the active tab has an undoable action.
func (r *Registry) CanUndo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.CanUndo()
	}
	return false
}

// CanRedo reports whether the active tab has a redoable action.
func (r *Registry) CanRedo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.active(); t != nil {
		return t.doc.CanRedo()
	}
	return false
}
