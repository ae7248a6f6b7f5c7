package job

import (
	"sync"
	"time"

	"github.com/rbxxaxa/chipng/bleed"
	"github.com/rbxxaxa/chipng/internal/clock"
)

// Callback is invoked exactly once when a job reaches a terminal state.
type Callback func(result *Result)

// Result is what a job's callback receives: either the bled buffer or the
// failure reason.
type Result struct {
	JobID  string
	Name   string
	Output *bleed.Buffer
	Stats  bleed.Stats
	Err    error
}

// Job represents a single bleeding request. A worker owns the job, and its
// image, between dispatch and completion.
type Job struct {
	ID           string
	Name         string
	Image        *bleed.Buffer
	Width        int
	Height       int
	State        State
	Worker       int
	Error        string
	ScheduledAt  time.Time
	DispatchedAt *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time

	result   *Result
	callback Callback
	notify   sync.Once
	handle   *Handle
}

// New creates a queued job.
func New(id, name string, image *bleed.Buffer, callback Callback) *Job {
	ret := &Job{
		ID:          id,
		Name:        name,
		Image:       image,
		State:       StateQueued,
		Worker:      -1,
		ScheduledAt: clock.Now(),
		callback:    callback,
		handle:      newHandle(id),
	}
	if image != nil {
		ret.Width, ret.Height = image.Width, image.Height
	}
	return ret
}

// Handle returns the caller-facing handle.
func (j *Job) Handle() *Handle {
	return j.handle
}

// Dispatch binds the job to a worker slot.
func (j *Job) Dispatch(worker int) {
	now := clock.Now()
	j.DispatchedAt = &now
	j.Worker = worker
	j.State = StateDispatched
}

// Start marks the job as running.
func (j *Job) Start() {
	now := clock.Now()
	j.StartedAt = &now
	j.State = StateRunning
}

// Complete marks the job as completed with the engine output.
func (j *Job) Complete(output *bleed.Buffer, stats bleed.Stats) {
	now := clock.Now()
	j.CompletedAt = &now
	j.State = StateCompleted
	j.result = &Result{JobID: j.ID, Name: j.Name, Output: output, Stats: stats}
}

// Fail marks the job as failed.
func (j *Job) Fail(err error) {
	now := clock.Now()
	j.CompletedAt = &now
	if err != nil {
		j.Error = err.Error()
	}
	j.State = StateFailed
	j.result = &Result{JobID: j.ID, Name: j.Name, Err: err}
}

// Notify invokes the callback and releases the handle. Only the first call
// has any effect, and only once the job is terminal.
func (j *Job) Notify() {
	if !j.State.IsTerminal() {
		return
	}
	j.notify.Do(func() {
		// the input is no longer needed once the job is terminal
		j.Image = nil
		if j.callback != nil {
			j.callback(j.result)
		}
		j.handle.resolve(j.result)
	})
}

// Record returns a copy of the job's bookkeeping fields. It must be called by
// the job's owner; the copy is safe to share while the job keeps moving.
func (j *Job) Record() *Record {
	ret := &Record{
		ID:           j.ID,
		Name:         j.Name,
		State:        j.State,
		Worker:       j.Worker,
		Width:        j.Width,
		Height:       j.Height,
		Error:        j.Error,
		ScheduledAt:  j.ScheduledAt,
		DispatchedAt: j.DispatchedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
	return ret
}

// Record is an immutable snapshot of a job's bookkeeping fields.
type Record struct {
	ID           string     `json:"id"`
	Name         string     `json:"name,omitempty"`
	State        State      `json:"state"`
	Worker       int        `json:"worker"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	Error        string     `json:"error,omitempty"`
	ScheduledAt  time.Time  `json:"scheduledAt"`
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}
