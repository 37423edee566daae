// Package transcriber turns participant audio recordings into timestamped
// transcript files with ffmpeg and whisper.cpp.
package transcriber

import "context"

// Transcriber converts audio files to transcripts in the recorder's format.
type Transcriber interface {
	// Transcribe writes <outDir>/<audio base name>.txt.
	Transcribe(ctx context.Context, audioPath, outDir string) (Result, error)
	// TranscribeAll runs up to performance.max_concurrent transcriptions at once.
	// Results are in input order; the error joins every failure.
	TranscribeAll(ctx context.Context, audioPaths []string, outDir string) ([]Result, error)
}

// Result describes one transcribed file.
type Result struct {
	Audio      string
	Transcript string
	Entries    int
	Err        error
}

// DefaultOutDir is the transcripts folder next to the recordings.
const DefaultOutDir = "transcripts"
