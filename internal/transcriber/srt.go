package transcriber

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/session-narrator/internal/transcript"
)

var (
	reSrtTiming = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})`)
	reSrtIndex  = regexp.MustCompile(`^\d+$`)
)

// ParseSRT converts SubRip cues into transcript entries with recorder-style
// timestamps. Cues without text are dropped.
func ParseSRT(content string) []transcript.Entry {
	var entries []transcript.Entry
	var cur *transcript.Entry
	var text []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.TrimSpace(strings.Join(text, " "))
			if cur.Text != "" {
				entries = append(entries, *cur)
			}
		}
		cur = nil
		text = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		if m := reSrtTiming.FindStringSubmatch(trimmed); m != nil {
			flush()
			start := srtSeconds(m[1:5])
			end := srtSeconds(m[5:9])
			cur = &transcript.Entry{
				StartSeconds: int(start),
				StartTime:    transcript.FormatTimestamp(start),
				EndTime:      transcript.FormatTimestamp(end),
			}
			continue
		}

		switch {
		case trimmed == "":
			flush()
		case cur == nil && reSrtIndex.MatchString(trimmed):
			// cue number
		case cur != nil:
			text = append(text, trimmed)
		}
	}
	flush()

	return entries
}

// srtSeconds converts [h, m, s, ms] captures to seconds.
func srtSeconds(parts []string) float64 {
	n := make([]int, 4)
	for i, p := range parts {
		n[i], _ = strconv.Atoi(p)
	}
	ms := n[3]
	switch len(parts[3]) {
	case 1:
		ms *= 100
	case 2:
		ms *= 10
	}
	return float64(n[0]*3600+n[1]*60+n[2]) + float64(ms)/1000
}
