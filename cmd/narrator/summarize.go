package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/session-narrator/internal/gateway"
	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	"github.com/nguyentantai21042004/session-narrator/internal/summarizer"
	"github.com/nguyentantai21042004/session-narrator/internal/watcher"
)

var (
	summarizeOutput      string
	summarizeTitle       string
	summarizeChunkPrompt string
	summarizeFinalPrompt string
	summarizeMaxTokens   int
	summarizeModel       string
	summarizeBackend     string
	summarizeWatch       bool
	summarizeTextfile    string
	summarizeMetricsAddr string
)

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <transcript>...",
		Short: "Summarize transcripts into one narrative",
		Long: `Merge the transcripts in chronological order, split them into chunks, summarize
each chunk in turn and reduce the summaries into one narrative.

Each file holds one participant; the participant name is the last "_" part of
the file name (session_Alice.txt -> Alice). The narrative is written to
summary-<session>.txt unless --output is given; a .docx output is exported as
a Word document and "-" prints to stdout.

With --watch the summary is rebuilt whenever a transcript or prompt file changes.`,
		Example: `  narrator summarize campaign/s12/transcripts/*.txt
  narrator summarize -o recap.docx --model llama3:8b s12/transcripts/*.txt
  narrator summarize --watch --metrics-addr :9108 s12/transcripts/*.txt`,
		RunE: runSummarize,
	}

	cmd.Flags().StringVarP(&summarizeOutput, "output", "o", "", "Output file (.txt, .docx, or - for stdout)")
	cmd.Flags().StringVar(&summarizeTitle, "title", "", "Document title for .docx output (default: session name)")
	cmd.Flags().StringVar(&summarizeChunkPrompt, "chunk-prompt", "", "Chunk prompt template file (must contain {TEXT})")
	cmd.Flags().StringVar(&summarizeFinalPrompt, "final-prompt", "", "Final prompt template file (must contain {TEXT})")
	cmd.Flags().IntVar(&summarizeMaxTokens, "max-tokens", 0, "Chunk budget in estimated tokens (default from config)")
	cmd.Flags().StringVar(&summarizeModel, "model", "", "Model name (default from config)")
	cmd.Flags().StringVar(&summarizeBackend, "backend", "", "Gateway backend: ollama or gemini")
	cmd.Flags().BoolVar(&summarizeWatch, "watch", false, "Re-run when a transcript or prompt file changes")
	cmd.Flags().StringVar(&summarizeTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each run")
	cmd.Flags().StringVar(&summarizeMetricsAddr, "metrics-addr", "", "Serve /metrics on this address in watch mode")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := applySummarizeFlags(); err != nil {
		return err
	}

	gw, err := gateway.New(cfg.Gateway, log)
	if err != nil {
		return err
	}

	reg := observability.NewRegistry()
	metrics := observability.NewMetrics(reg)
	progress := newProgressPrinter(os.Stderr)

	if summarizeTextfile == "" {
		summarizeTextfile = cfg.Metrics.Textfile
	}

	runOnce := func(ctx context.Context) error {
		// prompts are re-read on every run so watch mode picks up edits
		prompts, err := summarizer.LoadPrompts(cfg.Prompts.ChunkFile, cfg.Prompts.FinalFile)
		if err != nil {
			return err
		}

		s := summarizer.New(summarizer.Options{
			Gateway:      gw,
			Logger:       log,
			Metrics:      metrics,
			Tracer:       observability.NewTracer(),
			Prompts:      prompts,
			ChunkOptions: gateway.OptionsFrom(cfg.Gateway.ChunkOptions),
			FinalOptions: gateway.OptionsFrom(cfg.Gateway.FinalOptions),
			MaxTokens:    cfg.Chunking.MaxTokens,
			Progress:     progress.Print,
		})

		job, err := s.SummarizeFiles(ctx, args)
		if textErr := writeTextfile(reg); textErr != nil {
			log.Warn(ctx, "Failed to write metrics textfile: %v", textErr)
		}
		if err != nil {
			return err
		}

		return saveNarrative(progress, args, job)
	}

	if !summarizeWatch {
		return runOnce(ctx)
	}
	return watchAndSummarize(ctx, args, reg, progress, runOnce)
}

func applySummarizeFlags() error {
	if summarizeBackend != "" {
		cfg.Gateway.Backend = summarizeBackend
		cfg.Gateway.Model = ""
	}
	if summarizeModel != "" {
		cfg.Gateway.Model = summarizeModel
	}
	if summarizeMaxTokens != 0 {
		cfg.Chunking.MaxTokens = summarizeMaxTokens
	}
	if summarizeChunkPrompt != "" {
		cfg.Prompts.ChunkFile = summarizeChunkPrompt
	}
	if summarizeFinalPrompt != "" {
		cfg.Prompts.FinalFile = summarizeFinalPrompt
	}
	return cfg.Validate()
}

func saveNarrative(progress *progressPrinter, paths []string, job *summarizer.Job) error {
	if summarizeOutput == "-" {
		_, err := fmt.Fprintln(os.Stdout, job.Narrative)
		return err
	}

	out := summarizeOutput
	if out == "" {
		out = filepath.Join(cfg.Paths.Output, summarizer.DefaultOutputName(paths))
	}

	title := summarizeTitle
	if title == "" {
		title = summarizer.SessionName(paths)
	}

	if err := summarizer.SaveNarrative(out, title, job.Narrative); err != nil {
		return err
	}
	progress.Done(fmt.Sprintf("Narrative saved to %s (%d chunks, %s)", out, len(job.Chunks), job.Duration().Round(time.Second)))
	return nil
}

func writeTextfile(g prometheus.Gatherer) error {
	if summarizeTextfile == "" {
		return nil
	}
	return observability.WriteTextfile(summarizeTextfile, g)
}

// watchAndSummarize runs once, then again after every change to the transcripts
// or the prompt files, until ctx is cancelled.
func watchAndSummarize(ctx context.Context, paths []string, reg *prometheus.Registry, progress *progressPrinter, runOnce func(context.Context) error) error {
	if len(paths) == 0 {
		return runOnce(ctx)
	}

	addr := summarizeMetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "Metrics server error: %v", err)
			}
		}()
		defer srv.Close()
		log.Info(ctx, "Serving metrics on %s/metrics", addr)
	}

	watched := append([]string{}, paths...)
	for _, p := range []string{cfg.Prompts.ChunkFile, cfg.Prompts.FinalFile} {
		if p != "" {
			watched = append(watched, p)
		}
	}

	if err := runOnce(ctx); err != nil {
		progress.Warn(fmt.Sprintf("Initial run failed: %v", err))
	}

	w, err := watcher.New(watched, func(ctx context.Context, changed []string) error {
		for _, c := range changed {
			log.Info(ctx, "Changed: %s", c)
		}
		return runOnce(ctx)
	}, log, watcher.DefaultDebounce)
	if err != nil {
		return err
	}
	defer w.Stop()

	progress.Done(fmt.Sprintf("Watching %d files, press Ctrl+C to stop", len(watched)))
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(reg))
	return mux
}
