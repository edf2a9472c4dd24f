package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndo_NoOpOnEmptyHistory(t *testing.T) {
	d := newTestDoc(t)

	assert.False(t, d.Undo())
	assert.False(t, d.Redo())
	assert.Equal(t, 3, d.Len())
}

func TestUndoRedo_TextEdit(t *testing.T) {
	d := newTestDoc(t)
	require.True(t, d.UpdateText(1, "a2"))

	require.True(t, d.Undo())
	got, _ := d.Entry(1)
	assert.Equal(t, "a", got.Text)

	require.True(t, d.Redo())
	got, _ = d.Entry(1)
	assert.Equal(t, "a2", got.Text)
}

func TestUndoRedo_Delete_RestoresExactSnapshot(t *testing.T) {
	d := newTestDoc(t)
	before, _ := d.Entry(2)

	require.True(t, d.DeleteEntry(2))
	require.Equal(t, 2, d.Len())

	require.True(t, d.Undo())
	restored, ok := d.Entry(2)
	require.True(t, ok)
	assert.Equal(t, before.ID, restored.ID)
	assert.Equal(t, before.StartTime, restored.StartTime)
	assert.Equal(t, before.EndTime, restored.EndTime)
	assert.Equal(t, before.Text, restored.Text)
	assert.Equal(t, 2, d.CurrentEntryID())

	require.True(t, d.Redo())
	assert.Equal(t, []string{"a", "c"}, texts(d.Entries()))
	assert.Equal(t, []int{1, 2}, ids(d.Entries()))
}

func TestUndoRedo_Add(t *testing.T) {
	d := newTestDoc(t)
	added := d.AddEntry(1)

	require.True(t, d.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, texts(d.Entries()))

	require.True(t, d.Redo())
	entries := d.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, added.StartTime, entries[1].StartTime)
	assert.Equal(t, added.EndTime, entries[1].EndTime)
	assert.Equal(t, added.ID, d.CurrentEntryID())
	assert.Equal(t, added.ID, d.EditingEntryID())
}

func TestUndoRedo_Split(t *testing.T) {
	d := newTestDoc(t)
	_, ok := d.SplitEntry(2, 4000)
	require.True(t, ok)
	afterSplit := texts(d.Entries())
	require.Equal(t, []string{"a", "b", "b", "c"}, afterSplit)

	require.True(t, d.Undo())
	entries := d.Entries()
	require.Equal(t, []string{"a", "b", "c"}, texts(entries))
	assert.Equal(t, 3000, entries[1].StartTime.Millis())
	assert.Equal(t, 6000, entries[1].EndTime.Millis())

	require.True(t, d.Redo())
	entries = d.Entries()
	require.Equal(t, afterSplit, texts(entries))
	assert.Equal(t, 4000, entries[1].EndTime.Millis())
	assert.Equal(t, 4000, entries[2].StartTime.Millis())
	assert.Equal(t, []int{1, 2, 3, 4}, ids(entries))
}

func TestUndo_Merge_RestoresAbsorbedSnapshotsInOrder(t *testing.T) {
	d := newTestDoc(t)
	originals := d.Entries()

	merged, ok := d.MergeEntries([]int{1, 2, 3})
	require.True(t, ok)
	require.Equal(t, "a b c", merged.Text)
	require.Equal(t, 1, d.Len())

	require.True(t, d.Undo())
	entries := d.Entries()
	require.Len(t, entries, 3)
	for i, original := range originals {
		assert.Equal(t, original.ID, entries[i].ID)
		assert.Equal(t, original.StartTime, entries[i].StartTime)
		assert.Equal(t, original.EndTime, entries[i].EndTime)
		assert.Equal(t, original.Text, entries[i].Text)
	}

	require.True(t, d.Redo())
	entries = d.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a b c", entries[0].Text)
	assert.Equal(t, 9000, entries[0].EndTime.Millis())
	assert.Equal(t, []int{1}, ids(entries))
}

func TestUndoRedo_InterleavedOperationsKeepOrder(t *testing.T) {
	d := newTestDoc(t)

	require.True(t, d.UpdateText(1, "a1"))
	require.True(t, d.DeleteEntry(3))
	_, ok := d.SplitEntry(2, 4500)
	require.True(t, ok)

	// Unwind everything, then replay everything.
	for d.CanUndo() {
		require.True(t, d.Undo())
	}
	assert.Equal(t, []string{"a", "b", "c"}, texts(d.Entries()))

	for d.CanRedo() {
		require.True(t, d.Redo())
	}
	assert.Equal(t, []string{"a1", "b", "b"}, texts(d.Entries()))
	assert.Equal(t, []int{1, 2, 3}, ids(d.Entries()))
}
