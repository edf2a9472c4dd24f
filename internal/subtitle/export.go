package subtitle

import (
	"fmt"
	"os"
	"strings"
)

// ExportTXT writes entries as plain text, one subtitle per line.
func ExportTXT(path string, entries []Entry) error {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Text)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write TXT file: %w", err)
	}
	return nil
}

// ExportVTT writes entries in WebVTT format.
func ExportVTT(path string, entries []Entry) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	for i, entry := range entries {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", entry.StartTime.VTTString(), entry.EndTime.VTTString())
		b.WriteString(entry.Text)
		if i < len(entries)-1 {
			b.WriteString("\n\n")
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write VTT file: %w", err)
	}
	return nil
}

// ExportMarkdown writes entries as a timestamped transcript.
func ExportMarkdown(path string, entries []Entry) error {
	var b strings.Builder
	b.WriteString("# Transcript\n\n")

	for _, entry := range entries {
		fmt.Fprintf(&b, "**[%s - %s]** %s\n\n",
			entry.StartTime.SimpleString(),
			entry.EndTime.SimpleString(),
			strings.ReplaceAll(entry.Text, "\n", " "))
	}

	if err := os.WriteFile(path, []byte(strings.TrimRight(b.String(), "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return nil
}

// FCPXMLOptions controls Final Cut Pro XML export.
type FCPXMLOptions struct {
	FPS       float64
	PositionX int
	PositionY int
}

// DefaultFCPXMLOptions returns the standard 25fps export settings.
func DefaultFCPXMLOptions() FCPXMLOptions {
	return FCPXMLOptions{FPS: 25, PositionX: 0, PositionY: -415}
}

// ExportFCPXML writes entries as a Final Cut Pro title sequence.
func ExportFCPXML(path string, entries []Entry, opts FCPXMLOptions) error {
	if opts.FPS <= 0 {
		opts.FPS = 25
	}

	var frameDuration, formatName string
	switch int(opts.FPS) {
	case 24:
		frameDuration, formatName = "100/2400s", "FFVideoFormat1080p24"
	case 30:
		frameDuration, formatName = "100/3000s", "FFVideoFormat1080p30"
	case 60:
		frameDuration, formatName = "100/6000s", "FFVideoFormat1080p60"
	default:
		frameDuration, formatName = "100/2500s", "FFVideoFormat1080p25"
	}

	timeBase := int64(opts.FPS * 100)
	var totalDuration int64
	if len(entries) > 0 {
		totalDuration = entries[len(entries)-1].EndTime.Frames(opts.FPS) * 100
	}
	gapDuration := totalDuration + 10000

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE fcpxml>

<fcpxml version="1.8">
  <resources>
    <format id="r1" name="%s" frameDuration="%s" width="1920" height="1080" colorSpace="1-1-1 (Rec. 709)"/>
    <effect id="r2" name="Custom" uid=".../Titles.localized/Build In:Out.localized/Custom.localized/Custom.moti"/>
  </resources>
  <library>
    <event name="Subtitles">
      <project name="Subtitles">
        <sequence duration="%d/%ds" format="r1" tcStart="0s" tcFormat="NDF" audioLayout="stereo" audioRate="48k">
          <spine>
            <gap name="Gap" offset="0s" duration="%d/%ds">
`, formatName, frameDuration, gapDuration, timeBase, gapDuration, timeBase)

	for i, entry := range entries {
		startUnits := entry.StartTime.Frames(opts.FPS) * 100
		endUnits := entry.EndTime.Frames(opts.FPS) * 100
		durationUnits := endUnits - startUnits

		escaped := escapeXML(strings.ReplaceAll(entry.Text, "\n", " "))
		title := escaped
		if runes := []rune(title); len(runes) > 20 {
			title = string(runes[:20])
		}

		fmt.Fprintf(&b, `<title name="%s" lane="1" offset="%d/%ds" ref="r2" duration="%d/%ds">
<param name="Position" key="9999/10199/10201/1/100/101" value="%d %d"/>
<text>
  <text-style ref="ts%d">%s</text-style>
</text>
<text-style-def id="ts%d">
  <text-style font="PingFang SC" fontSize="62" fontFace="Semibold" fontColor="1 1 1 1" bold="1" alignment="center"/>
</text-style-def>
</title>
`,
			title,
			startUnits, timeBase,
			durationUnits, timeBase,
			opts.PositionX, opts.PositionY,
			i+1, escaped,
			i+1)
	}

	b.WriteString(`            </gap>
          </spine>
        </sequence>
      </project>
    </event>
  </library>
</fcpxml>`)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write FCPXML file: %w", err)
	}
	return nil
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
