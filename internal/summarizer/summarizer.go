package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentantai21042004/session-narrator/internal/chunker"
	"github.com/nguyentantai21042004/session-narrator/internal/gateway"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

// Error stages.
const (
	stageFiles   = "files"
	stageCombine = "combine"
	stageChunk   = "chunking"
	stageSummary = "summarize"
	stageReduce  = "reduce"
)

// Metric phase labels.
const (
	phaseChunk = "chunk"
	phaseFinal = "final"
)

// reduceSeparator joins chunk summaries in the reduce prompt.
const reduceSeparator = "\n\n"

// SummarizeFiles runs the whole pipeline over transcript files.
func (s *implSummarizer) SummarizeFiles(ctx context.Context, paths []string) (*Job, error) {
	job := newJob(paths)
	if len(paths) == 0 {
		return s.fail(ctx, job, narrerr.Input(stageFiles, narrerr.MsgNoFiles))
	}

	return s.run(ctx, job, func(ctx context.Context) error {
		if err := s.combineAndChunk(ctx, job); err != nil {
			return err
		}
		return s.mapReduce(ctx, job)
	})
}

// SummarizeChunks runs the map-reduce over chunks, skipping merge and chunking.
func (s *implSummarizer) SummarizeChunks(ctx context.Context, chunks []chunker.Chunk) (*Job, error) {
	job := newJob(nil)
	job.Chunks = chunks

	return s.run(ctx, job, func(ctx context.Context) error {
		return s.mapReduce(ctx, job)
	})
}

// Plan merges and chunks the files. It shares no state with running jobs.
func (s *implSummarizer) Plan(ctx context.Context, paths []string) (*Plan, error) {
	if len(paths) == 0 {
		return nil, narrerr.Input(stageFiles, narrerr.MsgNoFiles)
	}

	doc := s.merger.Merge(ctx, paths)
	if doc.IsEmpty() {
		return nil, narrerr.Input(stageCombine, narrerr.MsgUnreadableFiles)
	}

	text := doc.Render()
	return &Plan{
		Participants: doc.Participants,
		Entries:      len(doc.Entries),
		Document:     text,
		Chunks:       chunker.Build(text, s.tokens),
	}, nil
}

// run holds the job slot for the duration of body and records the outcome.
func (s *implSummarizer) run(ctx context.Context, job *Job, body func(context.Context) error) (*Job, error) {
	ctx = logger.WithJobID(ctx, job.ID)

	if err := s.acquire(ctx); err != nil {
		return s.fail(ctx, job, fmt.Errorf("wait for running job: %w", err))
	}
	defer s.release()

	job.StartedAt = time.Now()
	ctx, span := s.tracer.StartJobSpan(ctx, job.ID, len(job.Files))

	err := body(ctx)
	if err != nil {
		s.fail(ctx, job, err)
	} else {
		job.State = StateDone
		job.FinishedAt = time.Now()
		s.logger.Info(ctx, "Narrative ready: %d chunks, %d gateway calls, %s",
			len(job.Chunks), job.Calls, job.Duration().Round(time.Second))
		s.metrics.ObserveJob(false, len(job.Chunks), job.Duration())
	}

	observability.End(span, err)
	return job, err
}

func (s *implSummarizer) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *implSummarizer) release() {
	<-s.sem
}

func (s *implSummarizer) fail(ctx context.Context, job *Job, err error) (*Job, error) {
	job.State = StateFailed
	job.Err = err
	job.FinishedAt = time.Now()
	s.logger.Error(ctx, "Summarization failed after %d gateway calls: %v", job.Calls, err)
	s.metrics.ObserveJob(true, len(job.Chunks), job.Duration())
	return job, err
}

// enter notifies progress and then moves the job to state.
func (s *implSummarizer) enter(job *Job, state State, chunk int) {
	if s.progress != nil {
		p := Progress{JobID: job.ID, State: state}
		if state == StateSummarizingChunk {
			p.Chunk = chunk
			p.Total = len(job.Chunks)
		}
		s.progress(p)
	}
	job.State = state
}

func (s *implSummarizer) combineAndChunk(ctx context.Context, job *Job) error {
	s.enter(job, StateCombining, 0)
	pctx, span := s.tracer.StartPhaseSpan(ctx, string(StateCombining))
	doc := s.merger.Merge(pctx, job.Files)
	job.Participants = doc.Participants
	if doc.IsEmpty() {
		err := narrerr.Input(stageCombine, narrerr.MsgUnreadableFiles)
		observability.End(span, err)
		return err
	}
	text := doc.Render()
	observability.End(span, nil)
	s.logger.Info(ctx, "Combined %d entries from %d participants (%d chars)",
		len(doc.Entries), len(doc.Participants), len(text))

	s.enter(job, StateChunking, 0)
	_, span = s.tracer.StartPhaseSpan(ctx, string(StateChunking))
	job.Chunks = chunker.Build(text, s.tokens)
	observability.End(span, nil)
	s.logger.Info(ctx, "Split document into %d chunks (budget %d tokens)", len(job.Chunks), s.tokens)
	return nil
}

// mapReduce summarizes each chunk in order, then reduces the summaries. A single
// chunk's summary is the narrative.
func (s *implSummarizer) mapReduce(ctx context.Context, job *Job) error {
	total := len(job.Chunks)
	if total == 0 {
		return narrerr.Input(stageChunk, narrerr.MsgNoContent)
	}

	for job.Cursor < total {
		c := job.Chunks[job.Cursor]
		s.enter(job, StateSummarizingChunk, job.Cursor+1)
		s.logger.Info(ctx, "[%d/%d] Summarizing chunk (%d tokens)", job.Cursor+1, total, chunker.CountTokens(c.Text))

		prompt := BuildPrompt(s.prompts.chunk(), c.Text)
		summary, err := s.generate(ctx, job, phaseChunk, c.Index, prompt, s.chunkOpt)
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", job.Cursor+1, total, wrapStage(err, stageSummary))
		}
		job.Summaries = append(job.Summaries, summary)
		job.Cursor++
	}

	if total == 1 {
		job.Narrative = job.Summaries[0]
		return nil
	}

	s.enter(job, StateReducing, 0)
	s.logger.Info(ctx, "Reducing %d chunk summaries", len(job.Summaries))
	prompt := BuildPrompt(s.prompts.final(), strings.Join(job.Summaries, reduceSeparator))
	narrative, err := s.generate(ctx, job, phaseFinal, -1, prompt, s.finalOpt)
	if err != nil {
		return fmt.Errorf("final summary: %w", wrapStage(err, stageReduce))
	}
	job.Narrative = narrative
	return nil
}

// generate issues one gateway call and waits for it.
func (s *implSummarizer) generate(ctx context.Context, job *Job, phase string, chunkIndex int, prompt string, opts gateway.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, span := s.tracer.StartGatewaySpan(ctx, s.gateway.Model(), chunkIndex, len(prompt))
	start := time.Now()
	job.Calls++

	text, err := s.gateway.Generate(ctx, gateway.Request{Prompt: prompt, Options: opts})
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = narrerr.Service("", narrerr.MsgEmptyResponse, nil)
		}
	}

	elapsed := time.Since(start)
	s.metrics.ObserveGatewayCall(phase, elapsed, err)
	observability.End(span, err)
	if err != nil {
		return "", err
	}

	s.logger.Debug(ctx, "Gateway answered %d chars in %s", len(text), elapsed.Round(time.Millisecond))
	return text, nil
}

// wrapStage fills in the stage of a gateway error that has none.
func wrapStage(err error, stage string) error {
	if je, ok := err.(*narrerr.JobError); ok && je.Stage == "" {
		cp := *je
		cp.Stage = stage
		return &cp
	}
	return err
}
