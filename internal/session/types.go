package session

import "time"

// RecentFile is one row of the recent files list, newest first.
type RecentFile struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	EntryCount int       `json:"entryCount"`
	LastOpened time.Time `json:"lastOpened"`
}

// OpenTab captures one open tab for session restore. Position is the
// tab's index in the tab bar at the time the session was saved.
type OpenTab struct {
	Position int    `json:"position"`
	Path     string `json:"path"`
	Active   bool   `json:"active"`
}
