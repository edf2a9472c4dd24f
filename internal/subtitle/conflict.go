package subtitle

import "sort"

// DetectConflicts finds temporal overlaps between adjacent entries and
// returns the detected pairs. It is a full recompute: HasConflict is set
// on every entry involved in a pair and cleared on everything else.
//
// Entries are scanned in sorted-by-start order and only consecutive
// pairs are compared. An entry that overlaps a non-adjacent entry
// without overlapping the ones between them is not reported; the UX
// contract is "two touching adjacent subtitles", so the adjacency-only
// scan is deliberate.
func DetectConflicts(entries []Entry) []Conflict {
	conflicting := make(map[int]bool)

	sorted := make([]*Entry, len(entries))
	for i := range entries {
		sorted[i] = &entries[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Millis() < sorted[j].StartTime.Millis()
	})

	conflicts := make([]Conflict, 0)
	for i := 0; i+1 < len(sorted); i++ {
		current, next := sorted[i], sorted[i+1]
		// min(ends) - later start: the shared duration even when one
		// entry fully contains the other.
		overlap := min(current.EndTime.Millis(), next.EndTime.Millis()) - next.StartTime.Millis()
		if overlap > 0 {
			conflicts = append(conflicts, Conflict{
				EntryID:        current.ID,
				ConflictWithID: next.ID,
				OverlapMs:      overlap,
			})
			conflicting[current.ID] = true
			conflicting[next.ID] = true
		}
	}

	for i := range entries {
		entries[i].HasConflict = conflicting[entries[i].ID]
	}
	return conflicts
}
