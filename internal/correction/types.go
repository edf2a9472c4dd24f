package correction

import (
	"context"
	"time"
)

// Provider yields corrected text for one subtitle entry. Implementations
// are expected to be slow (model inference, network); the queue runs
// them off the engine's call stack and honors context cancellation.
type Provider interface {
	Correct(ctx context.Context, req Request) (Result, error)
}

// Sink receives correction results. The tab registry implements it; a
// result that arrives after its entry or tab is gone disappears
// silently.
type Sink interface {
	SetCorrectionSuggestion(tabID, entryID int, suggestion string)
}

// Request identifies the entry to correct and carries its current text
// and time range.
type Request struct {
	TabID   int    `json:"tab_id"`
	EntryID int    `json:"entry_id"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
	Text    string `json:"text"`
}

// Result is a provider's answer.
type Result struct {
	CorrectedText string `json:"corrected_text"`
	HasDifference bool   `json:"has_difference"`
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusCanceled Status = "canceled"
)

// Job tracks one correction request through the queue.
type Job struct {
	ID        string    `json:"id"`
	Request   Request   `json:"request"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
