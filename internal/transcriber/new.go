package transcriber

import (
	"github.com/nguyentantai21042004/session-narrator/internal/config"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	"github.com/nguyentantai21042004/session-narrator/pkg/executor"
)

type implTranscriber struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

// New creates a Transcriber. metrics may be nil.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger, metrics *observability.Metrics) Transcriber {
	return &implTranscriber{
		cfg:      cfg,
		executor: exec,
		logger:   log,
		metrics:  metrics,
		tracer:   observability.NewTracer(),
	}
}
