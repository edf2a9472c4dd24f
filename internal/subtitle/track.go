package subtitle

import "sort"

type placedInterval struct {
	startMs int
	endMs   int
}

// AssignTracks distributes entries over two display lanes so that
// overlapping entries do not share a lane where possible. Entries are
// placed greedily in start-time order, preferring track 0; an entry that
// collides with occupants of both tracks collapses back onto track 0.
// The greedy policy is deterministic and intentionally not an optimal
// coloring.
func AssignTracks(entries []Entry) {
	sorted := make([]*Entry, len(entries))
	for i := range entries {
		sorted[i] = &entries[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Millis() < sorted[j].StartTime.Millis()
	})

	occupancy := [2][]placedInterval{}
	for _, entry := range sorted {
		startMs := entry.StartTime.Millis()
		endMs := entry.EndTime.Millis()

		track := 0
		for candidate := 0; candidate < 2; candidate++ {
			if trackFree(occupancy[candidate], startMs, endMs) {
				track = candidate
				break
			}
		}

		entry.TrackNumber = track
		occupancy[track] = append(occupancy[track], placedInterval{startMs: startMs, endMs: endMs})
	}
}

func trackFree(placed []placedInterval, startMs, endMs int) bool {
	for _, iv := range placed {
		if endMs > iv.startMs && startMs < iv.endMs {
			return false
		}
	}
	return true
}
