package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// whisper runs whisper.cpp on a normalized WAV and returns the SRT path.
func (t *implTranscriber) whisper(ctx context.Context, wavPath string) (string, error) {
	outputPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	w := t.cfg.Whisper

	t.logger.Info(ctx, "Transcribing with %d threads (%s): %s", w.Threads, w.Language, filepath.Base(wavPath))

	// -ml 0 / -mc 0: no segment length or context limit; -bo 5: best of five
	args := []string{
		"-m", w.ModelPath,
		"-f", wavPath,
		"-osrt",
		"-l", w.Language,
		"-t", strconv.Itoa(w.Threads),
		"-ml", "0",
		"-mc", "0",
		"-bo", "5",
	}
	if w.Prompt != "" {
		args = append(args, "--prompt", w.Prompt)
	}
	args = append(args, "--output-file", outputPrefix)

	if _, err := t.executor.ExecuteInDir(ctx, filepath.Dir(wavPath), w.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}
	return outputPrefix + ".srt", nil
}
