package summarizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/session-narrator/internal/chunker"
)

// State is a step of the summarization state machine.
type State string

const (
	StateIdle             State = "Idle"
	StateCombining        State = "CombiningTranscripts"
	StateChunking         State = "Chunking"
	StateSummarizingChunk State = "SummarizingChunk"
	StateReducing         State = "ReducingFinal"
	StateDone             State = "Done"
	StateFailed           State = "Failed"
)

// Job is the state of one summarization run. Chunks is the fixed plan; Cursor
// is the index of the next chunk to summarize and Summaries grows in chunk order.
type Job struct {
	ID           string
	State        State
	Files        []string
	Participants []string
	Chunks       []chunker.Chunk
	Cursor       int
	Summaries    []string
	Narrative    string
	Err          error
	Calls        int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Plan is the merged document and its chunks, before any gateway call.
type Plan struct {
	Participants []string
	Entries      int
	Document     string
	Chunks       []chunker.Chunk
}

// Progress is passed to the progress callback before every state change and
// before every chunk. Chunk is 1-based and only set while summarizing chunks.
type Progress struct {
	JobID string
	State State
	Chunk int
	Total int
}

// ProgressFunc receives progress notifications. It runs on the job's goroutine.
type ProgressFunc func(Progress)

func newJob(files []string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		State:     StateIdle,
		Files:     files,
		StartedAt: time.Now(),
	}
}

// Done reports whether the job finished with a narrative.
func (j *Job) Done() bool {
	return j.State == StateDone
}

// Duration is the job's wall time, or the time so far if it is still running.
func (j *Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
