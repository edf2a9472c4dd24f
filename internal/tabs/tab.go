package tabs

import (
	"strings"

	"github.com/opencaption/subedit/internal/document"
)

// Tab couples one document with its own undo history (the document owns
// it, they share a lifetime) plus transient search state. Search
// results are kept as entry ids, never positions: ids are re-resolved
// against the live document at use time because renumbering shifts
// their meaning after every structural mutation.
type tab struct {
	id  int
	doc *document.Document

	searchQuery   string
	searchResults []int
	searchCursor  int
}

// Snapshot is a transport-friendly view of a tab.
type Snapshot struct {
	ID         int    `json:"id"`
	FilePath   string `json:"filePath"`
	Active     bool   `json:"active"`
	Dirty      bool   `json:"dirty"`
	EntryCount int    `json:"entryCount"`
	CanUndo    bool   `json:"canUndo"`
	CanRedo    bool   `json:"canRedo"`
}

func (t *tab) snapshot(active bool) Snapshot {
	return Snapshot{
		ID:         t.id,
		FilePath:   t.doc.FilePath(),
		Active:     active,
		Dirty:      t.doc.IsDirty(),
		EntryCount: t.doc.Len(),
		CanUndo:    t.doc.CanUndo(),
		CanRedo:    t.doc.CanRedo(),
	}
}

// search rebuilds the result id list for a query with a simple
// case-insensitive substring match.
func (t *tab) search(query string) []int {
	t.searchQuery = query
	t.searchResults = t.searchResults[:0]
	t.searchCursor = -1

	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)
	for _, entry := range t.doc.Entries() {
		if strings.Contains(strings.ToLower(entry.Text), needle) {
			t.searchResults = append(t.searchResults, entry.ID)
		}
	}
	return append([]int(nil), t.searchResults...)
}

// nextResult advances the search cursor and returns the next result id
// that still resolves to a live entry; stale ids are skipped.
func (t *tab) nextResult() (int, bool) {
	return t.stepResult(1)
}

// prevResult steps the search cursor backwards.
func (t *tab) prevResult() (int, bool) {
	return t.stepResult(-1)
}

func (t *tab) stepResult(dir int) (int, bool) {
	for range t.searchResults {
		t.searchCursor += dir
		if t.searchCursor < 0 {
			t.searchCursor = len(t.searchResults) - 1
		}
		if t.searchCursor >= len(t.searchResults) {
			t.searchCursor = 0
		}
		id := t.searchResults[t.searchCursor]
		if _, ok := t.doc.Entry(id); ok {
			return id, true
		}
	}
	return 0, false
}
