package transcript

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/session-narrator/internal/logger"
)

// Merger combines per-participant transcript files into one Document.
type Merger interface {
	Merge(ctx context.Context, paths []string) Document
}

type implMerger struct {
	logger logger.Logger
}

// NewMerger creates a Merger that logs unreadable files as warnings.
func NewMerger(log logger.Logger) Merger {
	return &implMerger{logger: log}
}

// Merge parses every file, tags entries with the participant derived from the
// file name and stably sorts them by start time. Unreadable files contribute nothing.
func (m *implMerger) Merge(ctx context.Context, paths []string) Document {
	var doc Document
	seen := make(map[string]bool)

	for _, path := range paths {
		participant := ParticipantFromPath(path)
		if !seen[participant] {
			seen[participant] = true
			doc.Participants = append(doc.Participants, participant)
		}

		entries, err := ParseFile(path)
		if err != nil {
			m.logger.Warn(ctx, "Cannot open transcript %s: %v", path, err)
			continue
		}
		if len(entries) == 0 {
			m.logger.Warn(ctx, "No entries found in %s", path)
			continue
		}

		m.logger.Debug(ctx, "Parsed %d entries for %s from %s", len(entries), participant, path)
		for _, e := range entries {
			e.Participant = participant
			doc.Entries = append(doc.Entries, e)
		}
	}

	SortEntries(doc.Entries)
	return doc
}

// SortEntries orders entries by StartSeconds, keeping input order for ties.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartSeconds < entries[j].StartSeconds
	})
}

// ParticipantFromPath returns the last "_"-separated token of the file's base
// name without extension, or the whole base name when it has no "_".
func ParticipantFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if i := strings.LastIndexByte(base, '_'); i >= 0 {
		return base[i+1:]
	}
	return base
}
