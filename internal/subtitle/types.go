package subtitle

import "golang.org/x/text/language"

// Reader is the interface for reading subtitle files
type Reader interface {
	Read(path string) (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, entries []Entry) error
}

// Entry represents a single timed subtitle line.
//
// ID, StartTime, EndTime and Text form the durable record; everything
// else is derived or workflow state and is never written to disk.
type Entry struct {
	ID        int      `json:"id"`
	StartTime TimeCode `json:"startTime"`
	EndTime   TimeCode `json:"endTime"`
	Text      string   `json:"text"`

	// Derived by DetectConflicts/AssignTracks after every mutation.
	HasConflict bool `json:"hasConflict"`
	TrackNumber int  `json:"trackNumber"`

	// Correction workflow state. An empty suggestion means none.
	NeedsCorrection      bool   `json:"needsCorrection"`
	CorrectionSuggestion string `json:"correctionSuggestion,omitempty"`
}

// Conflict reports a temporal overlap between two adjacent (by sorted
// start time) entries.
type Conflict struct {
	EntryID        int `json:"entryId"`
	ConflictWithID int `json:"conflictWithId"`
	OverlapMs      int `json:"overlapDurationMs"`
}

// File represents a parsed subtitle file
type File struct {
	Name     string
	Path     string
	Entries  []Entry
	Language language.Tag
	Format   string // e.g. SRT
}
