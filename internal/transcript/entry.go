// Package transcript parses per-participant transcript files and merges them
// into one chronologically ordered session document.
package transcript

// Entry is one utterance of a transcript.
type Entry struct {
	// StartSeconds is the sort key. Plain-format entries carry no timing and use 0.
	StartSeconds int
	StartTime    string
	EndTime      string
	Participant  string
	Text         string
}

// HasTimestamps reports whether the entry came from a timestamped source.
func (e Entry) HasTimestamps() bool {
	return e.StartTime != "" || e.EndTime != ""
}
