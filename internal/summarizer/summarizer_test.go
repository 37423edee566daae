package summarizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/session-narrator/internal/chunker"
	"github.com/nguyentantai21042004/session-narrator/internal/gateway"
	"github.com/nguyentantai21042004/session-narrator/internal/observability"
	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

type fakeGateway struct {
	mu        sync.Mutex
	responses map[int]string
	errs      map[int]error
	prompts   []string
	opts      []gateway.Options
	delay     time.Duration

	inflight    int32
	maxInflight int32
}

func (f *fakeGateway) Model() string { return "fake" }

func (f *fakeGateway) Generate(ctx context.Context, req gateway.Request) (string, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInflight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInflight, max, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	f.opts = append(f.opts, req.Options)
	call := len(f.prompts)

	if err := f.errs[call]; err != nil {
		return "", err
	}
	if r, ok := f.responses[call]; ok {
		return r, nil
	}
	return fmt.Sprintf("summary %d", call), nil
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

var (
	chunkOpts = gateway.Options{Temperature: 0.4, TopK: 40, TopP: 0.9}
	finalOpts = gateway.Options{Temperature: 0.3, TopK: 40, TopP: 0.9}
)

func newTestSummarizer(gw gateway.Gateway, opts Options) Summarizer {
	opts.Gateway = gw
	opts.ChunkOptions = chunkOpts
	opts.FinalOptions = finalOpts
	return New(opts)
}

func chunksOf(texts ...string) []chunker.Chunk {
	out := make([]chunker.Chunk, len(texts))
	for i, t := range texts {
		out[i] = chunker.Chunk{Index: i, Text: t, Sentences: []string{t}}
	}
	return out
}

func writeTranscript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSingleChunkSkipsReduce(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "session_Alice.txt",
		"Transcript for: Alice\n==========\n\n[00:01.000 -> 00:04.000] Nous entrons dans la taverne.\n")

	gw := &fakeGateway{responses: map[int]string{1: "  Le groupe entre dans la taverne.  \n"}}
	job, err := newTestSummarizer(gw, Options{}).SummarizeFiles(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, StateDone, job.State)
	assert.Equal(t, 1, job.Calls)
	assert.Equal(t, 1, gw.calls())
	assert.Equal(t, "Le groupe entre dans la taverne.", job.Narrative)
	assert.Equal(t, []string{"Alice"}, job.Participants)
	assert.Contains(t, gw.prompts[0], "[00:01.000 -> 00:04.000] Alice: Nous entrons dans la taverne.")
	assert.NotContains(t, gw.prompts[0], Placeholder)
}

func TestThreeChunksThenReduce(t *testing.T) {
	gw := &fakeGateway{responses: map[int]string{1: "S1", 2: "S2", 3: "S3", 4: "Final"}}
	s := newTestSummarizer(gw, Options{Prompts: Prompts{Chunk: "C[{TEXT}]", Final: "F[{TEXT}]"}})

	job, err := s.SummarizeChunks(context.Background(), chunksOf("one.", "two.", "three."))
	require.NoError(t, err)

	assert.Equal(t, 4, job.Calls)
	assert.Equal(t, []string{"C[one.]", "C[two.]", "C[three.]", "F[S1\n\nS2\n\nS3]"}, gw.prompts)
	assert.Equal(t, []string{"S1", "S2", "S3"}, job.Summaries)
	assert.Equal(t, "Final", job.Narrative)
	assert.Equal(t, 3, job.Cursor)
	assert.Len(t, job.Chunks, 3)
	assert.True(t, job.Done())
}

func TestEmptyFileList(t *testing.T) {
	gw := &fakeGateway{}
	job, err := newTestSummarizer(gw, Options{}).SummarizeFiles(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, narrerr.IsInput(err))
	assert.Contains(t, err.Error(), narrerr.MsgNoFiles)
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, err, job.Err)
	assert.Zero(t, gw.calls())
}

func TestGatewayErrorOnSecondChunk(t *testing.T) {
	gw := &fakeGateway{errs: map[int]error{
		2: narrerr.Service("generate", "gateway error", errors.New("model 'x' not found")),
	}}
	job, err := newTestSummarizer(gw, Options{}).SummarizeChunks(context.Background(), chunksOf("a.", "b.", "c."))

	require.Error(t, err)
	assert.True(t, narrerr.IsService(err))
	assert.Contains(t, err.Error(), "chunk 2/3")
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, 2, job.Calls)
	assert.Equal(t, 2, gw.calls())
	assert.Equal(t, []string{"summary 1"}, job.Summaries)
	assert.Equal(t, 1, job.Cursor)
	assert.Empty(t, job.Narrative)
}

func TestTransportErrorFailsJob(t *testing.T) {
	gw := &fakeGateway{errs: map[int]error{3: narrerr.Transport("generate", errors.New("connection refused"))}}
	job, err := newTestSummarizer(gw, Options{}).SummarizeChunks(context.Background(), chunksOf("a.", "b."))

	require.Error(t, err)
	assert.True(t, narrerr.IsTransport(err))
	assert.Contains(t, err.Error(), "final summary")
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, 3, job.Calls)
	assert.Len(t, job.Summaries, 2)
}

func TestEmptyResponseFailsJob(t *testing.T) {
	gw := &fakeGateway{responses: map[int]string{1: " \n\t"}}
	job, err := newTestSummarizer(gw, Options{}).SummarizeChunks(context.Background(), chunksOf("a.", "b."))

	require.Error(t, err)
	assert.True(t, narrerr.IsService(err))
	assert.Contains(t, err.Error(), narrerr.MsgEmptyResponse)
	assert.Contains(t, err.Error(), stageSummary)
	assert.Equal(t, 1, job.Calls)
	assert.Equal(t, StateFailed, job.State)
}

func TestZeroChunks(t *testing.T) {
	gw := &fakeGateway{}
	job, err := newTestSummarizer(gw, Options{}).SummarizeChunks(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, narrerr.IsInput(err))
	assert.Contains(t, err.Error(), narrerr.MsgNoContent)
	assert.Equal(t, StateFailed, job.State)
	assert.Zero(t, gw.calls())
}

func TestUnreadableTranscripts(t *testing.T) {
	dir := t.TempDir()
	blank := writeTranscript(t, dir, "s_Bob.txt", "\n\n   \n")
	missing := filepath.Join(dir, "s_Carol.txt")

	gw := &fakeGateway{}
	job, err := newTestSummarizer(gw, Options{}).SummarizeFiles(context.Background(), []string{blank, missing})

	require.Error(t, err)
	assert.True(t, narrerr.IsInput(err))
	assert.Contains(t, err.Error(), narrerr.MsgUnreadableFiles)
	assert.Equal(t, []string{"Bob", "Carol"}, job.Participants)
	assert.Zero(t, gw.calls())
}

func TestFilesToChunksToNarrative(t *testing.T) {
	dir := t.TempDir()
	alice := writeTranscript(t, dir, "s_Alice.txt",
		"[00:10 -> 00:15] Alice ouvre la porte du donjon avec prudence.\n"+
			"[00:40 -> 00:45] Alice lance un sort de lumière dans le couloir.\n")
	bob := writeTranscript(t, dir, "s_Bob.txt",
		"[00:05 -> 00:08] Bob vérifie son équipement avant de partir.\n"+
			"[00:20 -> 00:30] Bob aperçoit un gobelin caché derrière un pilier.\n")

	gw := &fakeGateway{}
	job, err := newTestSummarizer(gw, Options{MaxTokens: 30}).SummarizeFiles(context.Background(), []string{alice, bob})
	require.NoError(t, err)

	require.Greater(t, len(job.Chunks), 1)
	assert.Equal(t, len(job.Chunks)+1, job.Calls)
	assert.Equal(t, fmt.Sprintf("summary %d", job.Calls), job.Narrative)
	assert.Equal(t, []string{"Alice", "Bob"}, job.Participants)

	first := strings.Index(gw.prompts[0], "Bob vérifie")
	assert.GreaterOrEqual(t, first, 0, "earliest entry leads the first chunk")
	for i, c := range job.Chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestPhaseOptions(t *testing.T) {
	gw := &fakeGateway{}
	_, err := newTestSummarizer(gw, Options{}).SummarizeChunks(context.Background(), chunksOf("a.", "b."))
	require.NoError(t, err)

	require.Len(t, gw.opts, 3)
	assert.Equal(t, chunkOpts, gw.opts[0])
	assert.Equal(t, chunkOpts, gw.opts[1])
	assert.Equal(t, finalOpts, gw.opts[2])
	assert.Greater(t, gw.opts[0].Temperature, gw.opts[2].Temperature)
}

func TestDefaultPromptsUsed(t *testing.T) {
	gw := &fakeGateway{}
	_, err := newTestSummarizer(gw, Options{}).SummarizeChunks(context.Background(), chunksOf("Le dragon attaque.", "Fin."))
	require.NoError(t, err)

	assert.Equal(t, BuildPrompt(DefaultChunkPrompt(), "Le dragon attaque."), gw.prompts[0])
	assert.Equal(t, BuildPrompt(DefaultFinalPrompt(), "summary 1\n\nsummary 2"), gw.prompts[2])
}

func TestProgressOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "s_Dana.txt", "[00:01 -> 00:02] Bonjour.\n")

	var got []Progress
	gw := &fakeGateway{}
	s := newTestSummarizer(gw, Options{Progress: func(p Progress) { got = append(got, p) }})

	job, err := s.SummarizeFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Progress{JobID: job.ID, State: StateCombining}, got[0])
	assert.Equal(t, Progress{JobID: job.ID, State: StateChunking}, got[1])
	assert.Equal(t, Progress{JobID: job.ID, State: StateSummarizingChunk, Chunk: 1, Total: 1}, got[2])

	got = nil
	job, err = s.SummarizeChunks(context.Background(), chunksOf("a.", "b."))
	require.NoError(t, err)
	assert.Equal(t, []Progress{
		{JobID: job.ID, State: StateSummarizingChunk, Chunk: 1, Total: 2},
		{JobID: job.ID, State: StateSummarizingChunk, Chunk: 2, Total: 2},
		{JobID: job.ID, State: StateReducing},
	}, got)
}

func TestOneRequestInFlight(t *testing.T) {
	gw := &fakeGateway{delay: 5 * time.Millisecond}
	s := newTestSummarizer(gw, Options{})

	var wg sync.WaitGroup
	jobs := make([]*Job, 4)
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job, err := s.SummarizeChunks(context.Background(), chunksOf("a.", "b.", "c."))
			assert.NoError(t, err)
			jobs[i] = job
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&gw.maxInflight))
	assert.Equal(t, 16, gw.calls())

	ids := map[string]bool{}
	for _, j := range jobs {
		require.NotNil(t, j)
		assert.Equal(t, 4, j.Calls)
		assert.Len(t, j.Summaries, 3)
		ids[j.ID] = true
	}
	assert.Len(t, ids, 4)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := &fakeGateway{}
	job, err := newTestSummarizer(gw, Options{}).SummarizeChunks(ctx, chunksOf("a."))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, job.State)
	assert.Zero(t, gw.calls())
}

func TestMetricsRecorded(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	gw := &fakeGateway{errs: map[int]error{2: narrerr.Service("generate", "boom", nil)}}
	s := newTestSummarizer(gw, Options{Metrics: m})

	_, err := s.SummarizeChunks(context.Background(), chunksOf("a.", "b."))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues(phaseChunk, observability.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues(phaseChunk, observability.StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues(observability.OutcomeFailed)))
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "s_Eve.txt", "Header\n=====\nPremière phrase. Deuxième phrase.\n")

	gw := &fakeGateway{}
	plan, err := newTestSummarizer(gw, Options{}).Plan(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, []string{"Eve"}, plan.Participants)
	assert.Equal(t, 1, plan.Entries)
	assert.True(t, strings.HasPrefix(plan.Document, "Session D&D avec Eve\n"))
	assert.Len(t, plan.Chunks, 1)
	assert.Zero(t, gw.calls())

	_, err = newTestSummarizer(gw, Options{}).Plan(context.Background(), nil)
	assert.True(t, narrerr.IsInput(err))
}
