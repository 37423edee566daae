package transcript

import (
	"fmt"
	"io"
	"strings"
)

const (
	headerPrefix   = "Session D&D avec "
	separatorWidth = 50
)

// Document is the merged, chronologically ordered session.
type Document struct {
	Participants []string
	Entries      []Entry
}

// IsEmpty reports whether the document has no entries.
func (d Document) IsEmpty() bool {
	return len(d.Entries) == 0
}

// Render returns the text fed to the chunker, or "" when there are no entries.
func (d Document) Render() string {
	if d.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerPrefix)
	b.WriteString(strings.Join(d.Participants, ", "))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", separatorWidth))
	b.WriteString("\n\n")

	for _, e := range d.Entries {
		if e.HasTimestamps() {
			fmt.Fprintf(&b, "[%s -> %s] ", e.StartTime, e.EndTime)
		}
		fmt.Fprintf(&b, "%s: %s\n\n", e.Participant, e.Text)
	}

	return b.String()
}

// WriteTimestamped writes entries in the recorder's per-participant layout:
// a title line, a separator and one [start -> end] line per entry.
func WriteTimestamped(w io.Writer, title string, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "Transcript for: %s\n%s\n\n", title, strings.Repeat("=", separatorWidth)); err != nil {
		return err
	}
	for _, e := range entries {
		text := strings.Join(strings.Fields(e.Text), " ")
		if text == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "[%s -> %s] %s\n", e.StartTime, e.EndTime, text); err != nil {
			return err
		}
	}
	return nil
}
