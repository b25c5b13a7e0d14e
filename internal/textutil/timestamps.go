package textutil

import (
	"regexp"
	"strings"
)

var (
	// SRT timing line: 00:00:01,000 --> 00:00:05,000
	srtTimingPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
	// VTT timing line: 00:01.000 --> 00:05.000 (optional hour field and cue settings)
	vttTimingPattern = regexp.MustCompile(`^(?:\d{2}:)?\d{2}:\d{2}\.\d{3}\s*-->\s*(?:\d{2}:)?\d{2}:\d{2}\.\d{3}`)
	// Bracketed ASR marker: [00:00.000 --> 00:07.000] text
	asrMarkerPattern = regexp.MustCompile(`^\[[\d:.,]+\s*-->\s*[\d:.,]+\]\s*`)
	// Bracketed seconds marker from the platform API: [12.5] text
	secondsMarkerPattern = regexp.MustCompile(`^\[\d+(?:\.\d+)?\]\s*`)

	sequencePattern = regexp.MustCompile(`^\d+$`)
)

// RemoveTimestamps strips the four known timestamp syntaxes from subtitle or
// transcript text: SRT blocks (sequence number plus timing line), VTT timing
// lines and the WEBVTT header, bracketed ASR range markers, and bracketed
// seconds markers produced by the platform API. Runs of three or more blank
// lines collapse to a single blank line and the result is trimmed.
func RemoveTimestamps(text string) string {
	if text == "" {
		return ""
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	kept := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "WEBVTT" || strings.HasPrefix(trimmed, "WEBVTT ") {
			continue
		}
		if srtTimingPattern.MatchString(trimmed) || vttTimingPattern.MatchString(trimmed) {
			continue
		}
		// An SRT sequence number only counts as such when the next line is a
		// timing line; bare numbers elsewhere are real content.
		if sequencePattern.MatchString(trimmed) && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if srtTimingPattern.MatchString(next) || vttTimingPattern.MatchString(next) {
				continue
			}
		}
		kept = append(kept, stripInlineMarkers(line))
	}

	return strings.TrimSpace(collapseBlankRuns(strings.Join(kept, "\n")))
}

// stripInlineMarkers removes leading bracketed timestamp markers. Markers are
// stripped repeatedly so stacked prefixes cannot survive a single pass.
func stripInlineMarkers(line string) string {
	trimmedLeft := strings.TrimLeft(line, " \t")
	for {
		if loc := asrMarkerPattern.FindStringIndex(trimmedLeft); loc != nil {
			trimmedLeft = trimmedLeft[loc[1]:]
			continue
		}
		if loc := secondsMarkerPattern.FindStringIndex(trimmedLeft); loc != nil {
			trimmedLeft = trimmedLeft[loc[1]:]
			continue
		}
		break
	}
	if trimmedLeft == strings.TrimLeft(line, " \t") {
		return line
	}
	return trimmedLeft
}

// collapseBlankRuns reduces runs of three or more blank lines to exactly one
// blank line. Single and double blank lines are preserved.
func collapseBlankRuns(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	flush := func() {
		if blanks >= 3 {
			out = append(out, "")
		} else {
			for i := 0; i < blanks; i++ {
				out = append(out, "")
			}
		}
		blanks = 0
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()
	return strings.Join(out, "\n")
}
