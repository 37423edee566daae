package summarizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const transcriptsDirName = "transcripts"

// SaveNarrative writes the narrative to path in one write. A .docx path is
// exported as a Word document headed by title.
func SaveNarrative(path, title, narrative string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".docx") {
		if err := narrativeToDocx(title, narrative, path); err != nil {
			return fmt.Errorf("write docx %s: %w", path, err)
		}
		return nil
	}

	if err := os.WriteFile(path, []byte(narrative), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SessionName returns the session folder of the transcript files: the parent of
// their "transcripts" directory, or their own directory otherwise.
func SessionName(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	dir := filepath.Dir(paths[0])
	if filepath.Base(dir) == transcriptsDirName {
		dir = filepath.Dir(dir)
	}
	abs, err := filepath.Abs(dir)
	if err == nil {
		dir = abs
	}
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// DefaultOutputName is summary-<session>.txt, or summary.txt when the session
// folder cannot be determined.
func DefaultOutputName(paths []string) string {
	if name := SessionName(paths); name != "" {
		return "summary-" + name + ".txt"
	}
	return "summary.txt"
}
