package transcriber

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	"github.com/nguyentantai21042004/session-narrator/internal/transcript"
)

// Transcribe normalizes, transcribes and writes one recording.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath, outDir string) (res Result, err error) {
	res.Audio = audioPath
	start := time.Now()

	ctx, span := t.tracer.StartTranscribeSpan(ctx, audioPath)
	defer func() {
		res.Err = err
		t.metrics.ObserveTranscription(err)
		observability.End(span, err)
	}()

	if _, err := os.Stat(audioPath); err != nil {
		return res, fmt.Errorf("open audio: %w", err)
	}
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(audioPath), DefaultOutDir)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return res, fmt.Errorf("create transcripts dir: %w", err)
	}

	workDir, err := os.MkdirTemp(t.cfg.Paths.Temp, "narrator-*")
	if err != nil {
		return res, fmt.Errorf("create work dir: %w", err)
	}
	defer t.cleanupWorkDir(ctx, workDir)

	wavPath, err := t.normalizeAudio(ctx, audioPath, workDir)
	if err != nil {
		return res, fmt.Errorf("normalize audio: %w", err)
	}

	srtPath, err := t.whisper(ctx, wavPath)
	if err != nil {
		return res, fmt.Errorf("transcribe: %w", err)
	}

	data, err := os.ReadFile(srtPath)
	if err != nil {
		return res, fmt.Errorf("read whisper output: %w", err)
	}
	entries := ParseSRT(string(data))

	base := filepath.Base(audioPath)
	res.Transcript = filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".txt")
	res.Entries = len(entries)
	if err := writeTranscript(res.Transcript, base, entries); err != nil {
		return res, err
	}

	t.logger.Info(ctx, "[DONE] %s -> %s (%d segments, %s)", base, res.Transcript, len(entries), time.Since(start).Round(time.Second))
	return res, nil
}

// TranscribeAll transcribes the recordings concurrently, bounded by
// performance.max_concurrent.
func (t *implTranscriber) TranscribeAll(ctx context.Context, audioPaths []string, outDir string) ([]Result, error) {
	limit := t.cfg.Performance.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	slots := make(chan struct{}, limit)

	results := make([]Result, len(audioPaths))
	var wg sync.WaitGroup

	t.logger.Info(ctx, "Transcribing %d files (max concurrent: %d)", len(audioPaths), limit)

	for i, path := range audioPaths {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			for j := i; j < len(audioPaths); j++ {
				results[j] = Result{Audio: audioPaths[j], Err: ctx.Err()}
			}
			wg.Wait()
			return results, joinErrors(results)
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-slots }()

			t.logger.Info(ctx, "[%d/%d] Transcribing %s", i+1, len(audioPaths), filepath.Base(path))
			res, err := t.Transcribe(ctx, path, outDir)
			if err != nil {
				t.logger.Error(ctx, "Failed to transcribe %s: %v", path, err)
			}
			results[i] = res
		}(i, path)
	}

	wg.Wait()
	return results, joinErrors(results)
}

func writeTranscript(path, title string, entries []transcript.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := transcript.WriteTimestamped(w, title, entries); err != nil {
		f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	return f.Close()
}

func joinErrors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(r.Audio), r.Err))
		}
	}
	return errors.Join(errs...)
}
