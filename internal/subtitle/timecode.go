package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
)

// TimeCode is a subtitle timestamp broken into display fields.
// Canonical form keeps minutes/seconds below 60 and milliseconds below
// 1000; hours are unbounded.
type TimeCode struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	Seconds      int `json:"seconds"`
	Milliseconds int `json:"milliseconds"`
}

// Millis converts the timecode to an absolute millisecond count.
func (t TimeCode) Millis() int {
	return ((t.Hours*60+t.Minutes)*60+t.Seconds)*1000 + t.Milliseconds
}

// TimeCodeFromMillis converts an absolute millisecond count to canonical
// form. Negative input is clamped to zero.
func TimeCodeFromMillis(ms int) TimeCode {
	if ms < 0 {
		ms = 0
	}
	return TimeCode{
		Hours:        ms / 3600000,
		Minutes:      ms / 60000 % 60,
		Seconds:      ms / 1000 % 60,
		Milliseconds: ms % 1000,
	}
}

// String formats the timecode in SRT form: HH:MM:SS,mmm
func (t TimeCode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d,%03d", t.Hours, t.Minutes, t.Seconds, t.Milliseconds)
}

// VTTString formats the timecode in WebVTT form: HH:MM:SS.mmm
func (t TimeCode) VTTString() string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hours, t.Minutes, t.Seconds, t.Milliseconds)
}

// SimpleString formats the timecode without milliseconds: HH:MM:SS
func (t TimeCode) SimpleString() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// Frames converts the timecode to a frame count at the given frame rate.
func (t TimeCode) Frames(fps float64) int64 {
	totalSeconds := float64(t.Hours)*3600 +
		float64(t.Minutes)*60 +
		float64(t.Seconds) +
		float64(t.Milliseconds)/1000
	return int64(totalSeconds*fps + 0.5)
}

var timeCodeRe = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}),(\d{3})$`)

// ParseTimeCode parses an SRT timestamp: HH:MM:SS,mmm
func ParseTimeCode(s string) (TimeCode, error) {
	matches := timeCodeRe.FindStringSubmatch(s)
	if len(matches) != 5 {
		return TimeCode{}, fmt.Errorf("invalid timestamp format: %s", s)
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	sec, _ := strconv.Atoi(matches[3])
	ms, _ := strconv.Atoi(matches[4])

	return TimeCode{Hours: h, Minutes: m, Seconds: sec, Milliseconds: ms}, nil
}
