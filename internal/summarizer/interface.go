package summarizer

import (
	"context"

	"github.com/nguyentantai21042004/session-narrator/internal/chunker"
)

// Summarizer turns transcripts into one narrative with a sequential map-reduce
// over the gateway. Jobs on the same Summarizer run one at a time.
type Summarizer interface {
	// SummarizeFiles merges the transcript files, chunks the document and
	// summarizes it. The returned Job is never nil, even on error.
	SummarizeFiles(ctx context.Context, paths []string) (*Job, error)
	// SummarizeChunks runs the map-reduce over a precomputed chunk plan.
	SummarizeChunks(ctx context.Context, chunks []chunker.Chunk) (*Job, error)
	// Plan merges and chunks the files without calling the gateway.
	Plan(ctx context.Context, paths []string) (*Plan, error)
}
