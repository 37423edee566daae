package transcript

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// [MM:SS -> MM:SS] or [HH:MM:SS -> HH:MM:SS], fractional seconds allowed.
	reMarker    = regexp.MustCompile(`^\s*\[(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?)\s*->\s*(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?)\]\s*(.*)$`)
	reSeparator = regexp.MustCompile(`^\s*={3,}\s*$`)
)

// ParseFile reads and parses the transcript at path.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse extracts entries from one transcript. Timestamped content wins over the
// plain header/separator layout when both could apply.
func Parse(content string) []Entry {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	for _, line := range lines {
		if reMarker.MatchString(line) {
			return parseTimestamped(lines)
		}
	}
	return parsePlain(lines)
}

// parseTimestamped turns every marker line into an entry. Text continues on the
// following lines until the next marker or end of input.
func parseTimestamped(lines []string) []Entry {
	var entries []Entry
	var current *Entry
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Text != "" {
			entries = append(entries, *current)
		}
		current = nil
		body = nil
	}

	for _, line := range lines {
		m := reMarker.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				body = append(body, line)
			}
			continue
		}

		flush()
		current = &Entry{
			StartSeconds: TimestampToSeconds(m[1]),
			StartTime:    m[1],
			EndTime:      m[2],
		}
		body = []string{m[3]}
	}
	flush()

	return entries
}

// parsePlain reads the header + separator layout: every non-blank line after the
// separator is an untimed entry.
func parsePlain(lines []string) []Entry {
	var entries []Entry
	seenSeparator := false

	for _, line := range lines {
		if !seenSeparator {
			seenSeparator = reSeparator.MatchString(line)
			continue
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Text: text})
	}

	return entries
}

// TimestampToSeconds converts MM:SS or HH:MM:SS (fraction truncated) to seconds.
// Anything else yields 0.
func TimestampToSeconds(ts string) int {
	if i := strings.IndexByte(ts, '.'); i >= 0 {
		ts = ts[:i]
	}

	parts := strings.Split(ts, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0
	}
}

// FormatTimestamp renders seconds the way the recorder writes them:
// MM:SS.mmm, or HH:MM:SS.mmm once past the first hour.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds*1000 + 0.5)
	hours := totalMs / 3_600_000
	minutes := (totalMs % 3_600_000) / 60_000
	secs := float64(totalMs%60_000) / 1000

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%06.3f", minutes, secs)
}
