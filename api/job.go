package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/crawl"
)

// JobStatus tracks a crawl job through its run.
type JobStatus string

// Job lifecycle states.
const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// eventBufferSize caps the per-job replay buffer. Subscribers that connect
// after the job started replay buffered events before receiving live ones.
const eventBufferSize = 256

// subscriberBufferSize is the channel capacity per SSE subscriber. Events
// beyond a full buffer are dropped for that subscriber; the crawl never
// blocks on a slow consumer.
const subscriberBufferSize = 64

// JobEvent is the wire form of a crawl progress event.
type JobEvent struct {
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	Depth     int    `json:"depth"`
	Completed int    `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// JobSnapshot is a point-in-time view of a job, safe to serialize.
type JobSnapshot struct {
	ID         string            `json:"id"`
	Status     JobStatus         `json:"status"`
	Seeds      []string          `json:"seeds"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Indexed    int               `json:"indexed"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Errors     map[string]string `json:"errors,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Job is one in-flight or finished crawl. Jobs are transient: they live in
// memory only and do not survive a restart.
type Job struct {
	id        string
	seeds     []string
	startedAt time.Time

	mu         sync.Mutex
	status     JobStatus
	finishedAt time.Time
	indexed    int
	failed     int
	skipped    int
	errors     map[string]string
	err        string
	events     []JobEvent
	subs       map[chan JobEvent]struct{}
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Publish records a crawl progress event and fans it out to subscribers.
// Publish implements crawl.ProgressFunc and never blocks.
func (j *Job) Publish(event crawl.ProgressEvent) {
	e := JobEvent{
		Type:      event.Type.String(),
		URL:       event.URL,
		Depth:     event.Depth,
		Completed: event.Completed,
	}
	if event.Error != nil {
		e.Error = webrag.ErrorMessage(event.Error)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	switch event.Type {
	case crawl.ProgressIndexed:
		j.indexed++
	case crawl.ProgressFailed:
		j.failed++
	case crawl.ProgressSkipped:
		j.skipped++
	}

	if len(j.events) < eventBufferSize {
		j.events = append(j.events, e)
	}
	for ch := range j.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// finish records the terminal state and closes subscriber channels.
func (j *Job) finish(result *crawl.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.finishedAt = time.Now().UTC()
	if result != nil {
		j.indexed = result.Indexed
		j.failed = result.Failed
		j.skipped = result.Skipped
		j.errors = result.Errors
	}
	if err != nil {
		j.status = JobStatusFailed
		j.err = webrag.ErrorMessage(err)
	} else {
		j.status = JobStatusCompleted
	}

	for ch := range j.subs {
		close(ch)
	}
	j.subs = nil
}

// Snapshot returns the job's current state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := JobSnapshot{
		ID:        j.id,
		Status:    j.status,
		Seeds:     j.seeds,
		StartedAt: j.startedAt,
		Indexed:   j.indexed,
		Failed:    j.failed,
		Skipped:   j.skipped,
		Errors:    j.errors,
		Error:     j.err,
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		s.FinishedAt = &t
	}
	return s
}

// Subscribe registers a listener for the job's progress events. Buffered
// events are returned for replay; live events arrive on the channel, which
// is closed when the job finishes. The returned cancel func must be called
// when the listener is done.
func (j *Job) Subscribe() (replay []JobEvent, events <-chan JobEvent, cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	replay = make([]JobEvent, len(j.events))
	copy(replay, j.events)

	ch := make(chan JobEvent, subscriberBufferSize)
	if j.status != JobStatusRunning {
		close(ch)
		return replay, ch, func() {}
	}

	j.subs[ch] = struct{}{}
	return replay, ch, func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := j.subs[ch]; ok {
			delete(j.subs, ch)
			close(ch)
		}
	}
}

// JobManager tracks crawl jobs in memory.
type JobManager struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewJobManager creates an empty JobManager.
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*Job)}
}

// Create registers a new running job for the given seeds.
func (m *JobManager) Create(seeds []string) *Job {
	job := &Job{
		id:        uuid.New().String(),
		seeds:     seeds,
		startedAt: time.Now().UTC(),
		status:    JobStatusRunning,
		subs:      make(map[chan JobEvent]struct{}),
	}

	m.mu.Lock()
	m.jobs[job.id] = job
	m.mu.Unlock()

	return job
}

// Find returns the job with the given id, or ENOTFOUND.
func (m *JobManager) Find(id string) (*Job, error) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return nil, webrag.Errorf(webrag.ENOTFOUND, "job not found")
	}
	return job, nil
}

// Finish records the job's terminal result. Exposed so the handler starting
// the crawl goroutine can settle the job it created.
func (m *JobManager) Finish(job *Job, result *crawl.Result, err error) {
	job.finish(result, err)
}
