package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the scheduler.
// Fields are signed so a transition can both increment and decrement.
type Delta struct {
	Total     int
	Queued    int
	Running   int
	Completed int
	Failed    int
}

// Counters is a point-in-time copy of the tracked values.
type Counters struct {
	StartedAt     time.Time `json:"startedAt"`
	TotalJobs     int       `json:"total"`
	QueuedJobs    int       `json:"queued"`
	RunningJobs   int       `json:"running"`
	CompletedJobs int       `json:"completed"`
	FailedJobs    int       `json:"failed"`
}

// Done reports the number of jobs in a terminal state.
func (c Counters) Done() int {
	return c.CompletedJobs + c.FailedJobs
}

// Progress keeps aggregated job counters. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker. onChange, when not nil, is invoked after every
// update with a copy of the counters.
func New(onChange func(Counters)) *Progress {
	return &Progress{counters: Counters{StartedAt: time.Now()}, onChange: onChange}
}

// Update applies the delta. The callback runs outside the critical section
// so it may perform slow work.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.counters.TotalJobs += d.Total
	p.counters.QueuedJobs += d.Queued
	p.counters.RunningJobs += d.Running
	p.counters.CompletedJobs += d.Completed
	p.counters.FailedJobs += d.Failed
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange replaces the change callback. Passing nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}
