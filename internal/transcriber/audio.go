package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// normalizeAudio converts any recording to mono PCM WAV at the configured sample
// rate, the only input whisper.cpp accepts.
func (t *implTranscriber) normalizeAudio(ctx context.Context, audioPath, workDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	wavPath := filepath.Join(workDir, base+".wav")

	t.logger.Debug(ctx, "Normalizing audio: %s -> %s", audioPath, wavPath)

	args := []string{
		"-i", audioPath,
		"-vn",
		"-ar", strconv.Itoa(t.cfg.FFmpeg.SampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		wavPath,
	}

	if _, err := t.executor.Execute(ctx, t.cfg.FFmpeg.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("ffmpeg normalize audio: %w", err)
	}
	return wavPath, nil
}
