package summarizer

import (
	"github.com/nguyentantai21042004/session-narrator/internal/chunker"
	"github.com/nguyentantai21042004/session-narrator/internal/gateway"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	"github.com/nguyentantai21042004/session-narrator/internal/transcript"
)

// Options configures a Summarizer. Gateway is required; the rest has defaults.
type Options struct {
	Gateway gateway.Gateway
	Merger  transcript.Merger
	Logger  logger.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer

	Prompts      Prompts
	ChunkOptions gateway.Options
	FinalOptions gateway.Options
	MaxTokens    int

	Progress ProgressFunc
}

type implSummarizer struct {
	gateway  gateway.Gateway
	merger   transcript.Merger
	logger   logger.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	prompts  Prompts
	chunkOpt gateway.Options
	finalOpt gateway.Options
	tokens   int
	progress ProgressFunc

	// one job, hence one gateway request, at a time
	sem chan struct{}
}

// New creates a Summarizer.
func New(opts Options) Summarizer {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	merger := opts.Merger
	if merger == nil {
		merger = transcript.NewMerger(log)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NewTracer()
	}
	tokens := opts.MaxTokens
	if tokens <= 0 {
		tokens = chunker.DefaultMaxTokens
	}

	return &implSummarizer{
		gateway:  opts.Gateway,
		merger:   merger,
		logger:   log,
		metrics:  opts.Metrics,
		tracer:   tracer,
		prompts:  opts.Prompts,
		chunkOpt: opts.ChunkOptions,
		finalOpt: opts.FinalOptions,
		tokens:   tokens,
		progress: opts.Progress,
		sem:      make(chan struct{}, 1),
	}
}
