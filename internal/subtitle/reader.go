package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultReader is the default subtitle file reader
type DefaultReader struct{}

// NewReader creates a new subtitle file reader
func NewReader() Reader {
	return &DefaultReader{}
}

// Read reads and parses an SRT subtitle file
func (r *DefaultReader) Read(path string) (*File, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file does not exist: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer file.Close()

	var entries []Entry

	scanner := bufio.NewScanner(file)
	currentEntry := Entry{}
	state := "index" // possible values: "index", "time", "text"
	var textLines []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue // skip non-index lines
			}
			currentEntry.ID = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			startTime, endTime, err := parseSRTTimeLine(line)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %w", err)
			}
			currentEntry.StartTime = startTime
			currentEntry.EndTime = endTime
			state = "text"
			textLines = []string{}

		case "text":
			if line == "" {
				// subtitle text ends
				if len(textLines) > 0 {
					currentEntry.Text = strings.Join(textLines, "\n")
					entries = append(entries, currentEntry)
					currentEntry = Entry{}
				}
				state = "index"
				textLines = []string{}
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// handle last subtitle group
	if state == "text" && len(textLines) > 0 {
		currentEntry.Text = strings.Join(textLines, "\n")
		entries = append(entries, currentEntry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	return &File{
		Name:     filepath.Base(path),
		Path:     path,
		Entries:  entries,
		Language: detectLanguage(entries),
		Format:   "SRT",
	}, nil
}

// parseSRTTimeLine parses an SRT timing line: 00:02:16,612 --> 00:02:19,376
func parseSRTTimeLine(timeLine string) (TimeCode, TimeCode, error) {
	parts := strings.Split(timeLine, " --> ")
	if len(parts) != 2 {
		return TimeCode{}, TimeCode{}, fmt.Errorf("invalid time format: %s", timeLine)
	}

	startTime, err := ParseTimeCode(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeCode{}, TimeCode{}, err
	}

	endTime, err := ParseTimeCode(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeCode{}, TimeCode{}, err
	}

	return startTime, endTime, nil
}
