package tabs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencaption/subedit/internal/subtitle"
)

func entries(texts ...string) []subtitle.Entry {
	ret := make([]subtitle.Entry, len(texts))
	for i, text := range texts {
		ret[i] = subtitle.Entry{
			StartTime: subtitle.TimeCodeFromMillis(i * 3000),
			EndTime:   subtitle.TimeCodeFromMillis((i + 1) * 3000),
			Text:      text,
		}
	}
	return ret
}

func TestRegistry_CreateTab_ActivatesNewTab(t *testing.T) {
	r := NewRegistry()

	snap, created := r.CreateTab("/a.srt", entries("a"))

	require.True(t, created)
	assert.True(t, snap.Active)
	assert.Equal(t, snap.ID, r.ActiveTabID())
	assert.Equal(t, 1, snap.EntryCount)
	assert.False(t, snap.Dirty)
}

func TestRegistry_CreateTab_DedupesByPath(t *testing.T) {
	r := NewRegistry()
	first, _ := r.CreateTab("/a.srt", entries("a"))
	r.CreateTab("/b.srt", entries("b"))

	// Re-opening an open path switches to the existing tab.
	snap, created := r.CreateTab("/a.srt", entries("ignored"))

	assert.False(t, created)
	assert.Equal(t, first.ID, snap.ID)
	assert.Equal(t, first.ID, r.ActiveTabID())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CreateTab_UnsavedDocumentsNeverDedupe(t *testing.T) {
	r := NewRegistry()
	r.CreateTab("", nil)
	_, created := r.CreateTab("", nil)

	assert.True(t, created)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CloseTab_ActivatesSameIndex(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", nil)
	b, _ := r.CreateTab("/b.srt", nil)
	c, _ := r.CreateTab("/c.srt", nil)

	r.SetActiveTab(b.ID)
	empty, closed := r.CloseTab(b.ID)

	require.True(t, closed)
	assert.False(t, empty)
	// The tab now at the removed index becomes active.
	assert.Equal(t, c.ID, r.ActiveTabID())

	r.SetActiveTab(c.ID)
	empty, _ = r.CloseTab(c.ID)
	assert.False(t, empty)
	assert.Equal(t, a.ID, r.ActiveTabID())
}

func TestRegistry_CloseTab_LastTabEmptiesRegistry(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", nil)

	empty, closed := r.CloseTab(a.ID)

	assert.True(t, closed)
	assert.True(t, empty)
	assert.Equal(t, 0, r.ActiveTabID())
}

func TestRegistry_CloseTab_InactiveTabKeepsActive(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", nil)
	b, _ := r.CreateTab("/b.srt", nil)

	r.SetActiveTab(b.ID)
	r.CloseTab(a.ID)

	assert.Equal(t, b.ID, r.ActiveTabID())
}

func TestRegistry_SetActiveTab_UnknownIDIsNoOp(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", nil)

	r.SetActiveTab(999)

	assert.Equal(t, a.ID, r.ActiveTabID())
}

func TestRegistry_HistoriesAreIsolatedPerTab(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", entries("a1"))
	b, _ := r.CreateTab("/b.srt", entries("b1"))

	r.SetActiveTab(a.ID)
	require.True(t, r.UpdateText(1, "a2"))

	r.SetActiveTab(b.ID)
	assert.False(t, r.CanUndo(), "edit on tab A must not be undoable from tab B")

	// Undo in tab B is a no-op; tab A's edit survives.
	assert.False(t, r.Undo())
	r.SetActiveTab(a.ID)
	require.True(t, r.CanUndo())
	require.True(t, r.Undo())
	got := r.Entries()
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].Text)
}

func TestRegistry_OperationsWithoutTabsAreNoOps(t *testing.T) {
	r := NewRegistry()

	assert.Nil(t, r.Entries())
	assert.False(t, r.UpdateText(1, "x"))
	assert.False(t, r.DeleteEntry(1))
	_, ok := r.AddEntry(0)
	assert.False(t, ok)
	assert.False(t, r.Undo())
	assert.False(t, r.Redo())
}

func TestRegistry_Search_ResolvesIDsAtUseTime(t *testing.T) {
	r := NewRegistry()
	r.CreateTab("/a.srt", entries("hello one", "other", "hello two"))

	results := r.Search("hello")
	require.Equal(t, []int{1, 3}, results)

	id, ok := r.NextSearchResult()
	require.True(t, ok)
	assert.Equal(t, 1, id)

	// Deleting the tail entry invalidates result id 3; after
	// renumbering the cursor skips it rather than landing on the
	// wrong entry.
	r.DeleteEntries([]int{3})
	id, ok = r.NextSearchResult()
	require.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestRegistry_Search_PrevWrapsAround(t *testing.T) {
	r := NewRegistry()
	r.CreateTab("/a.srt", entries("x", "x"))

	require.Equal(t, []int{1, 2}, r.Search("x"))

	id, ok := r.PrevSearchResult()
	require.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestRegistry_SetCorrectionSuggestion_RoutesByTabID(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", entries("a"))
	b, _ := r.CreateTab("/b.srt", entries("b"))

	// Result arrives for tab A while tab B is active.
	r.SetActiveTab(b.ID)
	r.SetCorrectionSuggestion(a.ID, 1, "A!")

	r.SetActiveTab(a.ID)
	got := r.Entries()
	require.Len(t, got, 1)
	assert.Equal(t, "A!", got[0].CorrectionSuggestion)
	assert.True(t, got[0].NeedsCorrection)

	// Suggestions for closed tabs vanish silently.
	r.CloseTab(b.ID)
	r.SetCorrectionSuggestion(b.ID, 1, "B!")
}

func TestRegistry_DirtyTabsAndMarkSavedAt(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", entries("a"))
	r.CreateTab("/b.srt", entries("b"))

	r.SetActiveTab(a.ID)
	require.True(t, r.UpdateText(1, "a2"))

	dirty := r.DirtyTabs()
	require.Len(t, dirty, 1)
	assert.Equal(t, a.ID, dirty[0].ID)

	content, ok := r.TabContent(a.ID)
	require.True(t, ok)
	assert.True(t, r.MarkSavedAt(a.ID, content.Revision))
	assert.Empty(t, r.DirtyTabs())
}

func TestRegistry_MarkSavedAtRejectsStaleRevision(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateTab("/a.srt", entries("a"))
	require.True(t, r.UpdateText(1, "a2"))

	content, ok := r.TabContent(a.ID)
	require.True(t, ok)

	// An edit lands between the snapshot and the save confirmation.
	require.True(t, r.UpdateText(1, "a3"))

	assert.False(t, r.MarkSavedAt(a.ID, content.Revision))
	require.Len(t, r.DirtyTabs(), 1)

	// Undo and redo move the revision too, even though the cursor may
	// revisit old positions.
	content, _ = r.TabContent(a.ID)
	require.True(t, r.Undo())
	assert.False(t, r.MarkSavedAt(a.ID, content.Revision))

	content, _ = r.TabContent(a.ID)
	require.True(t, r.Redo())
	assert.False(t, r.MarkSavedAt(a.ID, content.Revision))

	// A fresh snapshot with no interleaved edit confirms cleanly.
	content, _ = r.TabContent(a.ID)
	assert.True(t, r.MarkSavedAt(a.ID, content.Revision))
	assert.Empty(t, r.DirtyTabs())
}
