package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	"github.com/nguyentantai21042004/session-narrator/internal/transcriber"
	"github.com/nguyentantai21042004/session-narrator/pkg/executor"
)

var (
	transcribeOutDir   string
	transcribeModel    string
	transcribeLanguage string
	transcribeParallel int
)

// NewTranscribeCommand creates the transcribe command.
func NewTranscribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audio>...",
		Short: "Transcribe participant recordings with whisper.cpp",
		Long: `Convert each recording to 16 kHz mono WAV with ffmpeg, transcribe it with
whisper.cpp and write <name>.txt in the timestamped transcript format that
summarize reads. Name recordings <session>_<participant>.<ext> so the
participant is picked up later.

Transcripts go to a "transcripts" folder next to each recording unless --out
is given.`,
		Example: `  narrator transcribe s12/*.flac
  narrator transcribe --out s12/transcripts --parallel 4 s12/*.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTranscribe,
	}

	cmd.Flags().StringVar(&transcribeOutDir, "out", "", "Output directory for transcripts")
	cmd.Flags().StringVar(&transcribeModel, "whisper-model", "", "whisper.cpp model file (default from config)")
	cmd.Flags().StringVar(&transcribeLanguage, "language", "", "Spoken language (default from config)")
	cmd.Flags().IntVar(&transcribeParallel, "parallel", 0, "Files transcribed at once (default from config)")

	return cmd
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if transcribeModel != "" {
		cfg.Whisper.ModelPath = transcribeModel
	}
	if transcribeLanguage != "" {
		cfg.Whisper.Language = transcribeLanguage
	}
	if transcribeParallel > 0 {
		cfg.Performance.MaxConcurrent = transcribeParallel
	}
	if err := cfg.ValidateTranscription(); err != nil {
		return err
	}

	reg := observability.NewRegistry()
	t := transcriber.New(cfg, executor.New(), log, observability.NewMetrics(reg))

	results, err := t.TranscribeAll(ctx, args, transcribeOutDir)

	p := newProgressPrinter(os.Stderr)
	for _, r := range results {
		if r.Err == nil {
			p.Done(fmt.Sprintf("%s -> %s (%d segments)", filepath.Base(r.Audio), r.Transcript, r.Entries))
		}
	}
	if cfg.Metrics.Textfile != "" {
		if werr := observability.WriteTextfile(cfg.Metrics.Textfile, reg); werr != nil {
			log.Warn(ctx, "Failed to write metrics textfile: %v", werr)
		}
	}
	return err
}
