package subtitle

import (
	"bufio"
	"fmt"
	"os"
)

// DefaultWriter is the default subtitle file writer
type DefaultWriter struct{}

// NewWriter creates a new subtitle file writer
func NewWriter() Writer {
	return &DefaultWriter{}
}

// Write writes entries to an SRT file at the specified path. Only the
// durable fields (sequence number, timing, text) are written; sequence
// numbers are regenerated from list position regardless of stored ids.
func (w *DefaultWriter) Write(path string, entries []Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	for i, entry := range entries {
		// write sequence number
		fmt.Fprintf(writer, "%d\n", i+1)

		// write time
		fmt.Fprintf(writer, "%s --> %s\n", entry.StartTime, entry.EndTime)

		// write text
		fmt.Fprintf(writer, "%s\n\n", entry.Text)
	}

	return nil
}
